package evaluations

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"evaluator-backend/internal/evaluation"
	"evaluator-backend/internal/extract"
	"evaluator-backend/internal/llm"
	"evaluator-backend/internal/shared/server/middleware"
	"evaluator-backend/internal/shared/server/respond"
)

const maxUploadSize = 20 << 20 // two files of up to 10MB

// Handler wires HTTP handlers to the evaluations service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches evaluation routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/question-sets", h.listQuestionSets)
	rg.POST("/evaluations", h.create)
	rg.POST("/evaluations/upload", h.upload)
	rg.GET("/evaluations", h.list)
	rg.GET("/evaluations/:id", h.get)
}

type createRequest struct {
	AnalysisType string `json:"analysisType"`
	Passage      string `json:"passage"`
	PassageB     string `json:"passageB"`
	Wait         bool   `json:"wait"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	wait := req.Wait || queryBool(c, "wait")
	h.start(c, CreateInput{
		AnalysisType: strings.TrimSpace(req.AnalysisType),
		PassageA:     req.Passage,
		PassageB:     req.PassageB,
	}, wait)
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	in := CreateInput{AnalysisType: strings.TrimSpace(c.PostForm("analysisType"))}

	passage, up, err := readUpload(c, fileHeader, "a")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	in.PassageA = passage
	in.Uploads = append(in.Uploads, up)

	if headerB, err := c.FormFile("fileB"); err == nil {
		passageB, upB, err := readUpload(c, headerB, "b")
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		in.PassageB = passageB
		in.Uploads = append(in.Uploads, upB)
	}

	wait := queryBool(c, "wait")
	if v := c.PostForm("wait"); v != "" {
		wait, _ = strconv.ParseBool(v)
	}
	h.start(c, in, wait)
}

func readUpload(c *gin.Context, fh *multipart.FileHeader, side string) (string, Upload, error) {
	file, err := fh.Open()
	if err != nil {
		return "", Upload{}, errors.New("unable to read file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", Upload{}, errors.New("unable to read file")
	}
	contentType := fh.Header.Get("Content-Type")
	text, err := extract.Passage(c.Request.Context(), data, contentType, fh.Filename)
	if err != nil {
		return "", Upload{}, fmt.Errorf("%s: %w", fh.Filename, err)
	}
	return text, Upload{
		Side:        side,
		FileName:    fh.Filename,
		ContentType: extract.DetectType(contentType, fh.Filename, data),
		Data:        data,
	}, nil
}

func (h *Handler) start(c *gin.Context, in CreateInput, wait bool) {
	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))

	if !wait {
		ev, err := h.Svc.Create(ctx, in)
		if err != nil {
			writeError(c, err, "failed to start evaluation")
			return
		}
		respond.SetEvaluationID(c, ev.ID)
		respond.Accepted(c, "/api/v1/evaluations/"+ev.ID, gin.H{
			"evaluationId": ev.ID,
			"status":       ev.Status,
		})
		return
	}

	ev, err := h.Svc.Run(ctx, in)
	respond.SetEvaluationID(c, ev.ID)
	if err != nil {
		if ev.ID != "" && (errors.Is(err, evaluation.ErrPhaseOneFailed) || errors.Is(err, llm.ErrProviderUnavailable)) {
			respond.Error(c, http.StatusBadGateway, "phase_one_failed", "the provider produced no usable first-round scores", gin.H{
				"evaluationId": ev.ID,
				"errorCode":    ev.ErrorCode,
			})
			return
		}
		writeError(c, err, "evaluation failed")
		return
	}
	respond.OK(c, ev)
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	ev, err := h.Svc.Get(c.Request.Context(), id)
	respond.SetEvaluationID(c, ev.ID)
	if err != nil {
		writeError(c, err, "failed to fetch evaluation")
		return
	}
	respond.OK(c, ev)
}

func (h *Handler) list(c *gin.Context) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	items, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err, "failed to list evaluations")
		return
	}
	respond.OK(c, gin.H{
		"items":  items,
		"limit":  limit,
		"offset": offset,
	})
}

type questionSetResponse struct {
	Name      string   `json:"name"`
	Questions []string `json:"questions"`
}

func (h *Handler) listQuestionSets(c *gin.Context) {
	reg := h.Svc.QuestionSets()
	out := []questionSetResponse{}
	for _, name := range reg.Names() {
		set, err := reg.Get(name)
		if err != nil {
			continue
		}
		out = append(out, questionSetResponse{Name: set.Name(), Questions: set.Questions()})
	}
	respond.OK(c, gin.H{"questionSets": out})
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrValidation):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "evaluation not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

func queryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}
