package ctl

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/cyclopsvision/go-mentor/pkg/procedure"
)

// Procedures lists the procedures stored on a verifier daemon.
func Procedures(baseURL string, jsonOut bool) error {
	var procs []*procedure.Procedure
	if err := getJSON(baseURL, "/procedures", &procs); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(procs)
	}

	fmt.Println()
	if len(procs) == 0 {
		fmt.Println(colorize(dim, "  no procedures stored"))
		fmt.Println()
		return nil
	}
	for _, p := range procs {
		fmt.Printf("  %s  %s %s\n",
			colorize(cyan, p.ID),
			padRight(p.Title, 30),
			colorize(dim, fmt.Sprintf("%d steps", p.NumSteps())))
	}
	fmt.Println()
	return nil
}

// CreateProcedure uploads a procedure definition from a JSON file.
// The file holds a title and step list in the same shape the API accepts.
func CreateProcedure(baseURL, path string, jsonOut bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	url := strings.TrimRight(baseURL, "/") + "/procedures"
	resp, err := httpClient.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("HTTP %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	if jsonOut {
		fmt.Println(string(body))
		return nil
	}
	fmt.Printf("  %s\n", colorize(green, "procedure created"))
	return nil
}

// DeleteProcedure removes a stored procedure by ID.
func DeleteProcedure(baseURL, id string) error {
	url := strings.TrimRight(baseURL, "/") + "/procedures/" + id
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
	fmt.Printf("  %s %s\n", colorize(green, "deleted"), id)
	return nil
}
