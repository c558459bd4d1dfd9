// Package http implements the HTTP handlers of the level check web service.
// Handlers stay thin: they parse the request, call the report or health
// service and format the response.
//
// # Endpoints
//
//	GET  /                      upload form (HTML)
//	POST /upload                report results page (HTML)
//	GET  /api/reports           available reports (JSON)
//	POST /api/reports/{mode}    report as JSON, or CSV with ?format=csv
//	GET  /api/health            health, plus /ready and /live
//	GET  /api/version           build and runtime information
//	GET  /metrics               Prometheus scrape endpoint
//
// # Error Handling
//
// API errors follow RFC 7807 Problem Details and are written by
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/upload/unsupported-file",
//	    "title": "Unsupported Media Type",
//	    "status": 415,
//	    "detail": "Only .xlsx workbooks are supported",
//	    "instance": "/api/reports/level-ups"
//	}
//
// The HTML pages show the same failures as a short sentence with a link
// back to the upload form.
package http
