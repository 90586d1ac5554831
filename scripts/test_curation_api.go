package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

// Pretty print JSON helper
func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func decode(body []byte) map[string]interface{} {
	var m map[string]interface{}
	json.Unmarshal(body, &m)
	return m
}

func main() {
	color.Cyan("🖼  Starting Curation API Flow Test\n")

	// 1. Corpus
	color.Yellow("\n1. Get Corpus")
	resp, body, err := sendRequest("GET", "/curation/corpus", nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)

	// 2. Create session
	color.Yellow("\n2. Create Session")
	resp, body, err = sendRequest("POST", "/curation/sessions", nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	created := decode(body)
	prettyPrint(created)

	var sessionID string
	if data, ok := created["data"].(map[string]interface{}); ok {
		sessionID, _ = data["id"].(string)
	}
	if sessionID == "" {
		color.Red("No session id in response")
		os.Exit(1)
	}

	// 3. Submit prompt
	color.Yellow("\n3. Submit Prompt")
	promptReq := map[string]interface{}{
		"prompt": "I want to feel the quiet loneliness of northern landscapes, fog over mountains, a single wanderer.",
	}
	resp, body, err = sendRequest("POST", "/curation/sessions/"+sessionID+"/prompt", promptReq)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(decode(body))

	// 4. Poll for the exhibition (websocket is the real channel; polling keeps the script simple)
	color.Yellow("\n4. Poll Session Until READY or ERROR")
	var state string
	for i := 0; i < 60; i++ {
		time.Sleep(2 * time.Second)
		resp, body, err = sendRequest("GET", "/curation/sessions/"+sessionID, nil)
		if err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
		sess := decode(body)
		if data, ok := sess["data"].(map[string]interface{}); ok {
			state, _ = data["state"].(string)
		}
		fmt.Printf("  state=%s\n", state)
		if state == "READY" || state == "ERROR" {
			break
		}
	}
	if state != "READY" {
		color.Red("Session never reached READY (state=%s)", state)
		os.Exit(1)
	}

	// 5. Fetch exhibition
	color.Yellow("\n5. Get Exhibition")
	resp, body, err = sendRequest("GET", "/curation/sessions/"+sessionID+"/exhibition", nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	exhibition := decode(body)
	prettyPrint(exhibition)

	var topArtworkID string
	if data, ok := exhibition["data"].(map[string]interface{}); ok {
		if ranked, ok := data["ranked"].([]interface{}); ok && len(ranked) > 0 {
			if first, ok := ranked[0].(map[string]interface{}); ok {
				if art, ok := first["artwork"].(map[string]interface{}); ok {
					topArtworkID, _ = art["id"].(string)
				}
			}
		}
	}

	// 6. Request analysis for the top-ranked artwork
	if topArtworkID != "" {
		color.Yellow("\n6. Request Analysis for %s", topArtworkID)
		resp, body, err = sendRequest("POST", "/curation/sessions/"+sessionID+"/artworks/"+topArtworkID+"/analysis", nil)
		if err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
		color.Green("Status: %s", resp.Status)

		color.Yellow("\n7. Poll Analysis")
		for i := 0; i < 30; i++ {
			time.Sleep(2 * time.Second)
			resp, body, _ = sendRequest("GET", "/curation/sessions/"+sessionID+"/artworks/"+topArtworkID+"/analysis", nil)
			analysis := decode(body)
			if data, ok := analysis["data"].(map[string]interface{}); ok {
				if st, _ := data["state"].(string); st == "AVAILABLE" || st == "ERROR" {
					prettyPrint(analysis)
					break
				}
			}
		}
	}

	// 8. Reset
	color.Yellow("\n8. Reset Session")
	resp, _, err = sendRequest("DELETE", "/curation/sessions/"+sessionID, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)

	color.Cyan("\n✅ Flow complete")
}
