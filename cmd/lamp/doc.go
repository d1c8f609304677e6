// Lamp is a CLI and HTTP service for whole-file AI code review.
//
// It packs source files, directories and zip archives into one prompt, checks
// the estimated token count, submits the prompt to a model on OpenRouter and
// prints the review with its executive summary.
//
// Usage:
//
//	lamp review ./src                 # review a directory
//	lamp review main.go util.go       # review specific files
//	lamp review bundle.zip --mode refactor
//	lamp review ./src --dry-run       # print the prompt without calling the API
//	lamp serve --addr :8080           # run the HTTP API
//	lamp models doctor                # check key and model
//
// The API key is read from OPENROUTER_API_KEY, or from a .env file in the
// working directory.
package main
