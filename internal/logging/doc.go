// Package logging provides structured, file-based logging with rotation for
// the retrieval engine. When --debug is set, comprehensive logs are written
// to ~/.conceptrag/logs/ for troubleshooting. In MCP server mode, logging
// goes to file only: stdout is reserved exclusively for the JSON-RPC
// transport (see SetupMCPMode).
package logging
