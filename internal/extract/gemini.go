package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"recuento/internal/core"
	"recuento/internal/schema"
)

// Gemini extracts receipt fields with a Gemini vision model. Credentials
// come from the environment via the genai client.
type Gemini struct {
	client   *genai.Client
	model    string
	registry *schema.Registry
}

// NewGemini initializes the Gemini-backed extractor.
func NewGemini(ctx context.Context, model string, registry *schema.Registry) (*Gemini, error) {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("init genai client: %w", err)
	}
	return &Gemini{client: client, model: model, registry: registry}, nil
}

// Extract sends the image to the model and decodes the JSON answer into a
// raw record keyed by the known snake_case columns.
func (g *Gemini) Extract(ctx context.Context, image []byte, filename string) (core.RawRecord, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(g.prompt()),
		genai.NewPartFromBytes(image, imageMIME(image)),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.2),
		ResponseMIMEType: "application/json",
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, &ExtractionError{Filename: filename, Err: err}
	}
	text := resp.Text()
	if text == "" {
		return nil, &ExtractionError{Filename: filename, Err: fmt.Errorf("empty model response")}
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, &ExtractionError{Filename: filename, Err: fmt.Errorf("decode model response: %w", err)}
	}

	rec := make(core.RawRecord, len(core.ColumnKeys))
	for _, key := range core.ColumnKeys {
		switch v := parsed[key].(type) {
		case nil:
			rec[key] = ""
		case string:
			rec[key] = v
		default:
			rec[key] = fmt.Sprint(v)
		}
	}
	return rec, nil
}

func (g *Gemini) prompt() string {
	var b strings.Builder
	b.WriteString("Extrae los campos del ticket o factura de la imagen y responde ")
	b.WriteString("solo JSON válido con exactamente estas llaves en snake_case: ")
	b.WriteString(strings.Join(core.ColumnKeys, ", "))
	b.WriteString(". Si un valor no existe, deja cadena vacía. ")
	b.WriteString("fecha_operacion en formato YYYY-MM-DD. No agregues texto adicional.")

	// Baseline sheet names help the model align criteria with the ledger.
	if sheets := g.registry.Sheets(); len(sheets) > 0 {
		names := make([]string, 0, len(sheets))
		for _, s := range sheets {
			names = append(names, s.Name)
		}
		fmt.Fprintf(&b, " Contexto adicional (baseline cargado): pestañas=%s.", strings.Join(names, ", "))
	}
	return b.String()
}

func imageMIME(image []byte) string {
	if mime := http.DetectContentType(image); strings.HasPrefix(mime, "image/") {
		return mime
	}
	return "image/jpeg"
}
