package application

import (
	"encoding/base64"
	"fmt"
	"strings"

	"report-gateway/report/domain"
)

// decodeScreenshot aceita um data URL ("data:image/png;base64,<payload>") ou
// base64 puro. O payload é tudo depois da primeira vírgula.
func decodeScreenshot(raw string) (*domain.Attachment, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	contentType := "image/png"
	payload := raw
	if header, data, ok := strings.Cut(raw, ","); ok {
		meta, isData := strings.CutPrefix(header, "data:")
		if !isData || !strings.HasSuffix(meta, ";base64") {
			return nil, fmt.Errorf("%w: expected a base64 data URL", domain.ErrInvalidScreenshot)
		}
		if mt := strings.TrimSuffix(meta, ";base64"); mt != "" {
			contentType = mt
		}
		payload = data
	}

	// só imagens viram anexo do e-mail encaminhado
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: unsupported content type %q", domain.ErrInvalidScreenshot, contentType)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidScreenshot, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrInvalidScreenshot)
	}

	return &domain.Attachment{
		Filename:    "screenshot" + extension(contentType),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func extension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
