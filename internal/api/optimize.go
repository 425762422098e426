package api

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/elkindavid/soluciones-inteligentes/internal/model"
	"github.com/elkindavid/soluciones-inteligentes/internal/service/blend"
	"github.com/elkindavid/soluciones-inteligentes/internal/service/chart"
	"github.com/elkindavid/soluciones-inteligentes/internal/service/excel"
	"github.com/elkindavid/soluciones-inteligentes/internal/store"
)

const (
	msgNoUpload      = "Debes subir un archivo Excel antes de ejecutar el modelo."
	msgUploadMissing = "El archivo cargado ya no está disponible. Por favor súbelo de nuevo."
	msgNotWorkbook   = "El archivo debe ser un libro de Excel (.xlsx)."
	msgBadLimit      = "El límite de comercializadores debe ser un entero entre 0 y 100."
	msgDegenerate    = "El modelo no asignó toneladas a ningún lote."

	downloadFilename = "resultados_optimizacion.xlsx"
)

var workbookExts = map[string]bool{".xlsx": true, ".xlsm": true, ".xltx": true, ".xltm": true}

// OptimizeParams 表单参数回显
type OptimizeParams struct {
	SoloMineros bool                `json:"soloMineros"`
	Limite      int                 `json:"limite"`
	Modelo      model.ObjectiveMode `json:"modelo"`
}

// ChartImages base64 编码的 PNG
type ChartImages struct {
	TypePie   string `json:"typePie"`
	MineStack string `json:"mineStack"`
}

// OptimizeResponse 优化响应
type OptimizeResponse struct {
	Filename    string             `json:"filename"`
	Params      OptimizeParams     `json:"params"`
	Result      *model.Result      `json:"result"`
	SkippedRows []model.SkippedRow `json:"skippedRows"`
	Charts      *ChartImages       `json:"charts,omitempty"`
	DownloadURL string             `json:"downloadUrl,omitempty"`
	RunID       int64              `json:"runId,omitempty"`
}

// Optimize 运行配煤优化
// POST /api/optimize (multipart: archivo, solo_mineros, limite, modelo)
func (h *Handler) Optimize(c *gin.Context) {
	const op = "api.Optimize"
	sid := sessionID(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)

	upload, status, err := h.resolveUpload(c, sid)
	if err != nil {
		if status >= http.StatusInternalServerError {
			h.logger.Error("upload handling failed", zap.String("op", op), zap.Error(err))
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	form, err := parseOptimizeForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input, err := excel.ParseFile(upload.Path, h.opts.Layout)
	if err != nil {
		h.recordRun(sid, upload.Filename, form, nil, 0, err)
		if errors.Is(err, excel.ErrDataFormat) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("parse workbook failed", zap.String("op", op), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no se pudo leer el archivo"})
		return
	}

	params := model.Params{
		MinersOnly:              form.SoloMineros,
		MaxComercializadorShare: float64(form.Limite) / 100,
		Objective:               form.Modelo,
		CokeLoss:                h.opts.CokeLoss,
		SolveTimeout:            h.opts.SolveTimeout,
	}

	start := time.Now()
	res, err := h.optimizer.Optimize(c.Request.Context(), input, params)
	elapsed := time.Since(start)
	runID := h.recordRun(sid, upload.Filename, form, res, elapsed, err)

	switch {
	case errors.Is(err, blend.ErrNoPositiveAllocation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": msgDegenerate, "result": res})
		return
	case errors.Is(err, blend.ErrInvalidParams):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logger.Error("optimize failed", zap.String("op", op), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := OptimizeResponse{
		Filename:    upload.Filename,
		Params:      form,
		Result:      res,
		SkippedRows: input.SkippedRows,
		RunID:       runID,
	}
	if resp.SkippedRows == nil {
		resp.SkippedRows = []model.SkippedRow{}
	}

	if res.Status == model.StatusOptimal {
		imgs, err := chart.RenderResult(res)
		switch {
		case err == nil:
			resp.Charts = &ChartImages{
				TypePie:   base64.StdEncoding.EncodeToString(imgs.TypePie),
				MineStack: base64.StdEncoding.EncodeToString(imgs.MineStack),
			}
		case !errors.Is(err, chart.ErrNoChartData):
			h.logger.Warn("render charts failed", zap.String("op", op), zap.Error(err))
		}
	}

	if token, err := h.storeWorkbook(sid, res); err != nil {
		h.logger.Warn("export workbook failed", zap.String("op", op), zap.Error(err))
	} else {
		resp.DownloadURL = "/api/optimize/download/" + token
	}

	c.JSON(http.StatusOK, resp)
}

// resolveUpload 保存新上传，或回退到会话最后一次上传
func (h *Handler) resolveUpload(c *gin.Context, sid string) (*store.Upload, int, error) {
	fh, err := c.FormFile("archivo")
	switch {
	case err == nil && fh.Filename != "":
		u, status, err := h.saveUpload(sid, fh)
		if err != nil {
			return nil, status, err
		}
		return u, http.StatusOK, nil
	case err == nil, errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("el archivo supera el límite de %d bytes", tooLarge.Limit)
		}
		return nil, http.StatusBadRequest, errors.New("formulario inválido")
	}

	u, err := h.store.LastUpload(sid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, http.StatusBadRequest, errors.New(msgNoUpload)
	}
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	if _, err := os.Stat(u.Path); err != nil {
		if forgetErr := h.store.ForgetUpload(sid); forgetErr != nil {
			h.logger.Warn("forget upload failed", zap.String("op", "api.resolveUpload"), zap.Error(forgetErr))
		}
		return nil, http.StatusBadRequest, errors.New(msgUploadMissing)
	}
	return u, http.StatusOK, nil
}

func (h *Handler) saveUpload(sid string, fh *multipart.FileHeader) (*store.Upload, int, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !workbookExts[ext] {
		return nil, http.StatusBadRequest, errors.New(msgNotWorkbook)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, http.StatusBadRequest, errors.New("no se pudo leer el archivo subido")
	}
	defer src.Close()

	if err := os.MkdirAll(h.opts.UploadDir, 0755); err != nil {
		return nil, http.StatusInternalServerError, err
	}
	tmp, err := os.CreateTemp(h.opts.UploadDir, sid+"-*.part")
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	defer os.Remove(tmp.Name())

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hasher), src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("save upload: %w", err)
	}

	path := filepath.Join(h.opts.UploadDir, sid+ext)
	if prev, err := h.store.LastUpload(sid); err == nil && prev.Path != path {
		_ = os.Remove(prev.Path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("save upload: %w", err)
	}

	u := store.Upload{
		SessionID: sid,
		Filename:  filepath.Base(fh.Filename),
		Path:      path,
		Size:      size,
		Hash:      hex.EncodeToString(hasher.Sum(nil)),
	}
	if err := h.store.SaveUpload(u); err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return &u, http.StatusOK, nil
}

func parseOptimizeForm(c *gin.Context) (OptimizeParams, error) {
	var p OptimizeParams

	if v, ok := c.GetPostForm("solo_mineros"); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "false", "0", "off", "no":
		default:
			p.SoloMineros = true
		}
	}

	limite, err := strconv.Atoi(strings.TrimSpace(c.DefaultPostForm("limite", "100")))
	if err != nil || limite < 0 || limite > 100 {
		return p, errors.New(msgBadLimit)
	}
	p.Limite = limite

	mode, err := model.ParseObjectiveMode(c.PostForm("modelo"))
	if err != nil {
		return p, fmt.Errorf("modelo inválido: %q", c.PostForm("modelo"))
	}
	p.Modelo = mode
	return p, nil
}

func (h *Handler) storeWorkbook(sid string, res *model.Result) (string, error) {
	f, err := h.exporter.ExportResult(res)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", err
	}
	return h.results.put(sid, downloadFilename, buf.Bytes(), h.opts.ResultTTL), nil
}

// recordRun 写入运行日志；失败只记日志
func (h *Handler) recordRun(sid, filename string, form OptimizeParams, res *model.Result, elapsed time.Duration, runErr error) int64 {
	run := store.Run{
		SessionID:  sid,
		Filename:   filename,
		Objective:  string(form.Modelo),
		MinersOnly: form.SoloMineros,
		MaxShare:   float64(form.Limite) / 100,
		Status:     "Error",
		DurationMs: elapsed.Milliseconds(),
	}
	if res != nil {
		run.Status = string(res.Status)
		run.ObjectiveValue = res.ObjectiveValue
		if res.Summary != nil {
			run.TotalCost = res.Summary.TotalCost
			run.TotalTons = res.Summary.TotalTons
		}
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}

	id, err := h.store.InsertRun(run)
	if err != nil {
		h.logger.Warn("record run failed", zap.String("op", "api.recordRun"), zap.Error(err))
		return 0
	}
	return id
}
