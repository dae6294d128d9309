package handler

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	apperrors "datamarket/internal/errors"
	"datamarket/internal/model"
	"datamarket/internal/service"
)

// DatasetHandler serves the catalog and file access endpoints.
type DatasetHandler struct {
	datasets  service.DatasetService
	downloads service.DownloadService
}

// NewDatasetHandler creates a new dataset handler.
func NewDatasetHandler(datasets service.DatasetService, downloads service.DownloadService) *DatasetHandler {
	return &DatasetHandler{datasets: datasets, downloads: downloads}
}

// DatasetResponse is the public view of a dataset. Storage keys are not
// exposed; clients get links through the download endpoint.
type DatasetResponse struct {
	ID          uint            `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" swaggertype:"string"`
	UploaderID  uint            `json:"uploader_id"`
	FileCount   int             `json:"file_count"`
	CreatedAt   time.Time       `json:"created_at"`
}

// DownloadResponse lists a dataset's files.
type DownloadResponse struct {
	DownloadURLs []string           `json:"downloadUrls"`
	Files        []service.FileLink `json:"files"`
}

func toDatasetResponse(d *model.Dataset) DatasetResponse {
	return DatasetResponse{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Price:       d.Price,
		UploaderID:  d.UploaderID,
		FileCount:   d.FileCount(),
		CreatedAt:   d.CreatedAt,
	}
}

func toDatasetResponses(datasets []model.Dataset) []DatasetResponse {
	out := make([]DatasetResponse, 0, len(datasets))
	for i := range datasets {
		out = append(out, toDatasetResponse(&datasets[i]))
	}
	return out
}

// Search godoc
// @Summary List or search datasets
// @Tags datasets
// @Produce json
// @Param search query string false "Case-insensitive title substring"
// @Success 200 {array} DatasetResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /datasets [get]
func (h *DatasetHandler) Search(c echo.Context) error {
	datasets, err := h.datasets.Search(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, toDatasetResponses(datasets))
}

// Get godoc
// @Summary Get dataset by id
// @Tags datasets
// @Produce json
// @Param id path int true "Dataset ID"
// @Success 200 {object} DatasetResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /datasets/{id} [get]
func (h *DatasetHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	dataset, err := h.datasets.Get(c.Request().Context(), id)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, toDatasetResponse(dataset))
}

// Stats godoc
// @Summary Purchase counts for a dataset
// @Tags datasets
// @Produce json
// @Param id path int true "Dataset ID"
// @Success 200 {object} service.DatasetStats
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /datasets/{id}/stats [get]
func (h *DatasetHandler) Stats(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	stats, err := h.datasets.Stats(c.Request().Context(), id)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, stats)
}

// Upload godoc
// @Summary Upload a dataset
// @Tags datasets
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param price formData string false "Price"
// @Param files formData file true "One or more files"
// @Success 201 {object} DatasetResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /datasets [post]
func (h *DatasetHandler) Upload(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return badRequest("expected multipart form data", "INVALID_REQUEST")
	}

	price := decimal.Zero
	if raw := strings.TrimSpace(c.FormValue("price")); raw != "" {
		price, err = decimal.NewFromString(raw)
		if err != nil {
			return badRequest("invalid price", "INVALID_AMOUNT")
		}
	}

	headers := form.File["files"]
	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, uploadFile(fh))
	}

	dataset, err := h.datasets.Create(c.Request().Context(), service.CreateDatasetInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Price:       price,
	}, files, claims.UserID)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, toDatasetResponse(dataset))
}

func uploadFile(fh *multipart.FileHeader) service.UploadFile {
	return service.UploadFile{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// DeleteOwn godoc
// @Summary Delete a dataset you uploaded
// @Tags datasets
// @Produce json
// @Security BearerAuth
// @Param id path int true "Dataset ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /datasets/user/{id} [delete]
func (h *DatasetHandler) DeleteOwn(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.datasets.DeleteAsOwner(c.Request().Context(), id, claims.UserID); err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Dataset and associated files deleted successfully"})
}

// Download godoc
// @Summary Download links for a purchased dataset
// @Tags datasets
// @Produce json
// @Security BearerAuth
// @Param id path int true "Dataset ID"
// @Param userId query int false "Must match the caller unless the caller is an admin"
// @Success 200 {object} DownloadResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /datasets/{id}/download [get]
func (h *DatasetHandler) Download(c echo.Context) error {
	who, datasetID, err := h.requester(c)
	if err != nil {
		return err
	}

	links, err := h.downloads.GetDownloadLinks(c.Request().Context(), who, datasetID)
	if err != nil {
		return errorResponse(err)
	}

	urls := make([]string, 0, len(links))
	for _, l := range links {
		urls = append(urls, l.URL)
	}
	return c.JSON(http.StatusOK, DownloadResponse{DownloadURLs: urls, Files: links})
}

// StreamFile godoc
// @Summary Stream one file of a purchased dataset
// @Tags datasets
// @Produce octet-stream
// @Security BearerAuth
// @Param id path int true "Dataset ID"
// @Param index path int true "File index"
// @Success 200 {file} binary
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /datasets/{id}/files/{index} [get]
func (h *DatasetHandler) StreamFile(c echo.Context) error {
	who, datasetID, err := h.requester(c)
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return badRequest("invalid index", "INVALID_ID")
	}

	file, err := h.downloads.OpenFile(c.Request().Context(), who, datasetID, index)
	if err != nil {
		return errorResponse(err)
	}
	defer file.Body.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	return c.Stream(http.StatusOK, file.ContentType, file.Body)
}

// requester resolves whose entitlement is checked. A userId query
// parameter is accepted for compatibility but must name the caller unless
// the caller is an admin.
func (h *DatasetHandler) requester(c echo.Context) (service.Requester, uint, error) {
	claims, err := currentClaims(c)
	if err != nil {
		return service.Requester{}, 0, err
	}
	datasetID, err := parseID(c, "id")
	if err != nil {
		return service.Requester{}, 0, err
	}

	who := service.Requester{UserID: claims.UserID, IsAdmin: claims.IsAdmin()}
	if raw := c.QueryParam("userId"); raw != "" {
		uid, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return service.Requester{}, 0, badRequest("invalid userId", "INVALID_ID")
		}
		if uint(uid) != claims.UserID {
			if !claims.IsAdmin() {
				return service.Requester{}, 0, errorResponse(apperrors.ErrForbidden)
			}
			// admins look up another user's entitlement
			who = service.Requester{UserID: uint(uid)}
		}
	}
	return who, datasetID, nil
}
