package language

// defaultEntries is the built-in table. Judge0 IDs are the Judge0 CE ids.
var defaultEntries = []Entry{
	{Key: "javascript", Name: "JavaScript", PistonLanguage: "javascript", FileName: "main.js", Judge0ID: 63},
	{Key: "typescript", Name: "TypeScript", PistonLanguage: "typescript", FileName: "main.ts", Judge0ID: 74},
	{Key: "python", Name: "Python", PistonLanguage: "python", FileName: "main.py", Judge0ID: 71},
	{Key: "java", Name: "Java", PistonLanguage: "java", FileName: "Main.java", Judge0ID: 62},
	{Key: "cpp", Name: "C++", PistonLanguage: "c++", FileName: "main.cpp", Judge0ID: 54},
	{Key: "c", Name: "C", PistonLanguage: "c", FileName: "main.c", Judge0ID: 50},
	{Key: "csharp", Name: "C#", PistonLanguage: "csharp", FileName: "Main.cs", Judge0ID: 51},
	{Key: "go", Name: "Go", PistonLanguage: "go", FileName: "main.go", Judge0ID: 60},
	{Key: "rust", Name: "Rust", PistonLanguage: "rust", FileName: "main.rs", Judge0ID: 73},
	{Key: "php", Name: "PHP", PistonLanguage: "php", FileName: "main.php", Judge0ID: 68},
	{Key: "ruby", Name: "Ruby", PistonLanguage: "ruby", FileName: "main.rb", Judge0ID: 72},
	{Key: "kotlin", Name: "Kotlin", PistonLanguage: "kotlin", FileName: "Main.kt", Judge0ID: 78},
	{Key: "swift", Name: "Swift", PistonLanguage: "swift", FileName: "main.swift", Judge0ID: 83},
}

// Default returns a registry holding the built-in language table.
func Default() *Registry {
	reg, err := NewRegistry(defaultEntries...)
	if err != nil {
		panic("language: invalid default table: " + err.Error())
	}
	return reg
}
