// Package docs provides generated OpenAPI documentation.
//
// Sightread API
//
//	@title			Sightread API
//	@version		1.0
//	@description	Image description service: caption, OCR, translation and speech synthesis.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/sightread
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8000
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/sightread/serve.go -o ./swagger --parseDependency --parseInternal
