package judgekit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// LanguagesService queries the server's language registry.
type LanguagesService struct {
	c *Client
}

// List returns the supported languages in the server's table order.
func (s *LanguagesService) List(ctx context.Context) (*LanguageList, error) {
	return doRequest[LanguageList](ctx, s.c, http.MethodGet, "/languages", nil, nil, http.StatusOK)
}

func (s *LanguagesService) IsSupported(ctx context.Context, language string) (bool, error) {
	path := fmt.Sprintf("/languages/%s", url.PathEscape(language))
	out, err := doRequest[languageSupport](ctx, s.c, http.MethodGet, path, nil, nil, http.StatusOK)
	if err != nil {
		return false, err
	}
	return out.Supported, nil
}
