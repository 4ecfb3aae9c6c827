package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cyclopsvision/go-mentor/internal/httpc"
	"github.com/cyclopsvision/go-mentor/pkg/procedure"
)

// fetchProcedure pulls a stored procedure from the verifier daemon.
func fetchProcedure(serverURL, id string) (*procedure.Procedure, error) {
	url := strings.TrimRight(serverURL, "/") + "/procedures/" + id
	resp, err := httpc.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch procedure: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch procedure: HTTP %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}

	var p procedure.Procedure
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("fetch procedure: decode: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
