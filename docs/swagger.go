// Package docs Find My Crew Search Service API.
//
// Search microservice for the Find My Crew platform. Indexes sailing-trip
// legs with their routes, dates, required skills, risk level and open crew
// slots, and answers geographic (bounding-box) and attribute searches for
// the web app and its conversational assistants.
//
//	Schemes: http, https
//	BasePath: /
//	Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package docs
