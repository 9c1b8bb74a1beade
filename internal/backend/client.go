package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"strings"
	"time"

	"veo-console/pkg/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// maxResponseSize borne la lecture des réponses JSON du backend
const maxResponseSize = 1 << 20

// Endpoints de soumission par flow
var flowEndpoints = map[models.Flow]string{
	models.FlowTextToVideo:     "/text_to_video",
	models.FlowImageToVideo:    "/image_to_video",
	models.FlowReferenceImages: "/video_from_reference_images",
	models.FlowFirstLast:       "/video_from_first_last_frames",
	models.FlowExtend:          "/extend_veo_video",
}

// EndpointFor retourne le chemin backend d'un flow
func EndpointFor(flow models.Flow) (string, error) {
	endpoint, ok := flowEndpoints[flow]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFlow, flow)
	}
	return endpoint, nil
}

// Config contient la configuration du client backend
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	FastModel    string
	QualityModel string
}

// Client parle au backend de génération vidéo
type Client struct {
	baseURL    string
	httpClient *http.Client
	config     Config
	tracer     trace.Tracer
}

// SubmitResult est la réponse acceptée d'une soumission
type SubmitResult struct {
	OperationName string
	Raw           json.RawMessage
}

// StatusReport est la réponse brute de /status, encore dans le vocabulaire
// du backend. La normalisation se fait dans le poller.
type StatusReport struct {
	Done   *bool  `json:"done"`
	Status string `json:"status"`
}

// Video est un flux vidéo téléchargé; l'appelant ferme Body
type Video struct {
	Body        io.ReadCloser
	ContentType string
	Filename    string
	Size        int64
}

// NewClient crée un client. Le timeout ne s'applique pas aux
// téléchargements, qui sont bornés par le contexte de l'appelant.
func NewClient(cfg Config) *Client {
	if cfg.FastModel == "" {
		cfg.FastModel = "veo-3.1-fast-generate-preview"
	}
	if cfg.QualityModel == "" {
		cfg.QualityModel = "veo-3.1-generate-preview"
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{},
		config:     cfg,
		tracer:     otel.Tracer("veo-console/backend"),
	}
}

// ModelName convertit le choix de la console en nom de modèle backend
func (c *Client) ModelName(m models.Model) string {
	if m == models.ModelQualityPreview {
		return c.config.QualityModel
	}
	return c.config.FastModel
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.config.Timeout)
}

func (c *Client) endpointURL(elem ...string) (string, error) {
	u, err := url.JoinPath(c.baseURL, elem...)
	if err != nil {
		return "", fmt.Errorf("invalid backend URL: %w", err)
	}
	return u, nil
}

// Submit envoie le formulaire au endpoint du flow. Les erreurs sont
// *RejectedError (ok != true) ou *TransportError (réseau, HTTP non 2xx).
func (c *Client) Submit(ctx context.Context, form *models.GenerationForm) (*SubmitResult, error) {
	ctx, span := c.tracer.Start(ctx, "BackendClient.Submit",
		trace.WithAttributes(attribute.String("flow", string(form.Flow))))
	defer span.End()

	endpoint, err := EndpointFor(form.Flow)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	target, err := c.endpointURL(endpoint)
	if err != nil {
		span.RecordError(err)
		return nil, &TransportError{Op: "submit", Err: err}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	body, contentType := c.encodeForm(form)
	defer body.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		span.RecordError(err)
		return nil, &TransportError{Op: "submit", Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, &TransportError{Op: "submit", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		span.RecordError(err)
		return nil, &TransportError{Op: "submit", StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		terr := &TransportError{Op: "submit", StatusCode: resp.StatusCode, Detail: extractDetail(raw)}
		span.RecordError(terr)
		return nil, terr
	}

	return decodeSubmitResponse(raw)
}

func decodeSubmitResponse(raw []byte) (*SubmitResult, error) {
	if !json.Valid(raw) {
		// Une réponse texte est présentée telle quelle, encodée en chaîne JSON
		quoted, _ := json.Marshal(string(raw))
		return nil, &RejectedError{Raw: quoted}
	}

	if err := validatePayload(submitSchema, raw); err != nil {
		return nil, &RejectedError{Raw: json.RawMessage(raw)}
	}

	var payload struct {
		OK            bool    `json:"ok"`
		OperationName *string `json:"operation_name"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || !payload.OK {
		return nil, &RejectedError{Raw: json.RawMessage(raw)}
	}

	result := &SubmitResult{Raw: json.RawMessage(raw)}
	if payload.OperationName != nil {
		result.OperationName = strings.TrimSpace(*payload.OperationName)
	}
	return result, nil
}

// encodeForm produit le corps multipart en streaming: les vidéos de base
// peuvent peser plusieurs centaines de Mo.
func (c *Client) encodeForm(form *models.GenerationForm) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(c.writeForm(mw, form))
	}()

	return pr, mw.FormDataContentType()
}

func (c *Client) writeForm(mw *multipart.Writer, form *models.GenerationForm) error {
	settings := form.Settings.WithDefaults()

	fields := [][2]string{{"prompt", form.Prompt}}
	if form.Flow.ExposesModel() {
		fields = append(fields, [2]string{"model", c.ModelName(settings.Model)})
	}
	fields = append(fields,
		[2]string{"aspect_ratio", string(settings.AspectRatio)},
		[2]string{"resolution", string(settings.Resolution)},
		[2]string{"duration_seconds", settings.DurationString()},
	)
	if form.Flow == models.FlowExtend && form.PreviousOperationName != "" {
		fields = append(fields, [2]string{models.FieldPreviousOperationName, form.PreviousOperationName})
	}

	for _, field := range fields {
		if err := mw.WriteField(field[0], field[1]); err != nil {
			return fmt.Errorf("write field %s: %w", field[0], err)
		}
	}

	for _, upload := range form.Uploads() {
		if err := writeUpload(mw, upload); err != nil {
			return err
		}
	}

	return mw.Close()
}

func writeUpload(mw *multipart.Writer, upload *models.Upload) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     upload.Field,
		"filename": upload.Filename,
	}))
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create part %s: %w", upload.Field, err)
	}

	if upload.Open == nil {
		return fmt.Errorf("upload %s has no content", upload.Filename)
	}
	src, err := upload.Open()
	if err != nil {
		return fmt.Errorf("open upload %s: %w", upload.Filename, err)
	}
	defer src.Close()

	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("copy upload %s: %w", upload.Filename, err)
	}
	return nil
}

// Status interroge /status/{operation_name}. Toute erreur renvoyée ici est
// transitoire pour le poller.
func (c *Client) Status(ctx context.Context, operation string) (*StatusReport, error) {
	ctx, span := c.tracer.Start(ctx, "BackendClient.Status",
		trace.WithAttributes(attribute.String("operation", operation)))
	defer span.End()

	target, err := c.endpointURL("status", operation)
	if err != nil {
		span.RecordError(err)
		return nil, &TransportError{Op: "status", Err: err}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &TransportError{Op: "status", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, &TransportError{Op: "status", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &TransportError{Op: "status", StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		terr := &TransportError{Op: "status", StatusCode: resp.StatusCode, Detail: extractDetail(raw)}
		span.RecordError(terr)
		return nil, terr
	}

	if err := validatePayload(statusSchema, raw); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", ErrMalformedStatus, err)
	}

	var report StatusReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedStatus, err)
	}

	return &report, nil
}

// Download ouvre le flux vidéo d'une opération terminée
func (c *Client) Download(ctx context.Context, operation string) (*Video, error) {
	ctx, span := c.tracer.Start(ctx, "BackendClient.Download",
		trace.WithAttributes(attribute.String("operation", operation)))
	defer span.End()

	target, err := c.endpointURL("download", operation)
	if err != nil {
		return nil, &TransportError{Op: "download", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &TransportError{Op: "download", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, &TransportError{Op: "download", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		terr := &TransportError{Op: "download", StatusCode: resp.StatusCode, Detail: extractDetail(raw)}
		if resp.StatusCode == http.StatusNotFound {
			terr.Err = ErrResultNotReady
		}
		span.RecordError(terr)
		return nil, terr
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}

	return &Video{
		Body:        resp.Body,
		ContentType: contentType,
		Filename:    downloadFilename(resp.Header.Get("Content-Disposition"), operation),
		Size:        resp.ContentLength,
	}, nil
}

// downloadFilename lit le nom proposé par le backend, sinon dérive
// "<dernier segment>.mp4" du nom d'opération.
func downloadFilename(disposition, operation string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil && params["filename"] != "" {
			return path.Base(params["filename"])
		}
	}
	base := path.Base(strings.Trim(operation, "/"))
	if base == "." || base == "/" || base == "" {
		base = "video"
	}
	return base + ".mp4"
}
