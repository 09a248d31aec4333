package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hotelbey/bey/http/common"
)

func decodeJSONResponseBody(res *http.Response, v any) error {
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		title := fmt.Sprintf("%s %s: HTTP %d", res.Request.Method, res.Request.URL.Path, res.StatusCode)

		b, err := io.ReadAll(res.Body)
		if err != nil {
			return fmt.Errorf("%s: %v", title, err)
		}

		contentType := res.Header.Get(common.HeaderContentType)
		if strings.HasPrefix(contentType, common.ContentTypeJson) && len(b) != 0 {
			var camundaErr common.CamundaError
			if err := json.Unmarshal(b, &camundaErr); err == nil && camundaErr.Message != "" {
				return camundaErr.ToEngineError(res.StatusCode, title)
			}
		}

		if len(b) != 0 {
			return fmt.Errorf("%s: %s", title, string(b))
		}
		return errors.New(title)
	}

	if v == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode JSON response body: %v", err)
	}

	return nil
}
