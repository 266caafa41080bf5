// Package entities provides the core domain types of opensearch-nix.
// The devshell types describe the tools a development shell requests from
// an external provisioning system; the OpenSearch types describe a site's
// search engine as discovered from its OpenSearch description document.
package entities
