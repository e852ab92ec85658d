package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sazinconstruction/adminkeeper/internal/common"
	"github.com/sazinconstruction/adminkeeper/internal/sanitize"
	"github.com/sazinconstruction/adminkeeper/internal/server/services"
)

const payloadKey = "payload"

// Sanitize decodes a JSON, urlencoded or multipart body into a map, cleans it
// with s and stores the result for the handler. It runs before any other
// parsing of the body.
func Sanitize(s *sanitize.Sanitizer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := decodeBody(c)
		if err != nil {
			return err
		}
		c.Locals(payloadKey, s.Map(raw))
		return c.Next()
	}
}

func payloadOf(c *fiber.Ctx) map[string]any {
	p, _ := c.Locals(payloadKey).(map[string]any)
	if p == nil {
		return map[string]any{}
	}
	return p
}

func decodeBody(c *fiber.Ctx) (map[string]any, error) {
	out := map[string]any{}
	ct := strings.ToLower(c.Get(fiber.HeaderContentType))

	switch {
	case len(c.Body()) == 0 && !strings.HasPrefix(ct, fiber.MIMEMultipartForm):
		return out, nil
	case strings.HasPrefix(ct, fiber.MIMEApplicationJSON):
		dec := json.NewDecoder(bytes.NewReader(c.Body()))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("%w: malformed json", common.ErrSanitizationRejected)
		}
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: body must be an object", common.ErrSanitizationRejected)
		}
		return obj, nil
	case strings.HasPrefix(ct, fiber.MIMEMultipartForm):
		form, err := c.MultipartForm()
		if err != nil {
			return nil, fmt.Errorf("%w: malformed form", common.ErrSanitizationRejected)
		}
		for k, vs := range form.Value {
			if len(vs) > 0 {
				out[k] = vs[0]
			}
		}
		return out, nil
	case strings.HasPrefix(ct, fiber.MIMEApplicationForm):
		c.Request().PostArgs().VisitAll(func(k, v []byte) {
			if _, seen := out[string(k)]; !seen {
				out[string(k)] = string(v)
			}
		})
		return out, nil
	}
	return nil, fiber.NewError(fiber.StatusUnsupportedMediaType, "Unsupported content type")
}

// upload reads the optional image part named field.
func upload(c *fiber.Ctx, field string) (*services.Upload, error) {
	if !strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("%w: malformed form", common.ErrSanitizationRejected)
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	return readPart(files[0])
}

func readPart(fh *multipart.FileHeader) (*services.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	body, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return &services.Upload{ContentType: fh.Header.Get(fiber.HeaderContentType), Body: body}, nil
}
