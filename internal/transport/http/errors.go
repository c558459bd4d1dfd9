package http

import (
	"context"
	"errors"
	"net/http"

	apierrors "levelcheck/internal/errors"
	"levelcheck/internal/services"
)

// multipartMemory is the part of an upload kept in memory before
// net/http spills it to a temp file.
const multipartMemory = 8 << 20

// toAPIError maps service errors onto API errors. Other errors pass through
// so the error handler can classify timeouts and oversized bodies.
func toAPIError(err error) error {
	switch {
	case errors.Is(err, services.ErrNoFile):
		return apierrors.ErrNoFile
	case errors.Is(err, services.ErrUnsupportedFile):
		return apierrors.NewWithDetails(http.StatusUnsupportedMediaType, apierrors.ErrUnsupportedFile.ErrorCode,
			apierrors.ErrUnsupportedFile.Message, err.Error())
	case errors.Is(err, services.ErrFileTooLarge):
		return apierrors.NewWithDetails(http.StatusRequestEntityTooLarge, apierrors.ErrFileTooLarge.ErrorCode,
			apierrors.ErrFileTooLarge.Message, err.Error())
	case errors.Is(err, services.ErrUnreadableWorkbook):
		return apierrors.UnreadableWorkbookError(err)
	case errors.Is(err, services.ErrUnknownReport):
		return apierrors.NewWithDetails(http.StatusNotFound, apierrors.ErrUnknownReport.ErrorCode,
			apierrors.ErrUnknownReport.Message, err.Error())
	case errors.Is(err, services.ErrInvalidToday):
		return apierrors.ErrValidation("today", "today must be a date in YYYY-MM-DD format")
	default:
		return err
	}
}

// multipartError classifies a failed ParseMultipartForm.
func multipartError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return apierrors.InvalidRequestWithError(err)
}

// pageMessage turns an error into a status code and a sentence for HTML pages.
func pageMessage(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, apierrors.ErrFileTooLarge.Message + "."
	}

	if errors.Is(err, services.ErrInvalidToday) {
		return http.StatusBadRequest, "The evaluation date must be in YYYY-MM-DD format."
	}

	var apiErr *apierrors.APIError
	if errors.As(toAPIError(err), &apiErr) {
		return apiErr.StatusCode, apiErr.Message + "."
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return http.StatusGatewayTimeout, "The file took too long to process."
	}
	return http.StatusInternalServerError, "Something went wrong while reading the file."
}
