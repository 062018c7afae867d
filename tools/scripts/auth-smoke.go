// Package main provides a CI-friendly smoke test for the Roundtable auth API.
//
// It validates:
//   - register -> session cookie issued
//   - profile fetch with the session
//   - logout -> cookie cleared
//   - login with the registered credentials
//   - login failure envelope for a wrong password
//   - profile rejection without a session
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"os"
	"time"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type profile struct {
	Success  bool   `json:"success"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func main() {
	base := flag.String("base", "http://127.0.0.1:8080", "server base URL")
	timeout := flag.Duration("timeout", 10*time.Second, "per-request timeout")
	flag.Parse()

	jar, err := cookiejar.New(nil)
	if err != nil {
		fatal("cookiejar: %v", err)
	}
	client := &http.Client{Jar: jar, Timeout: *timeout}

	suffix := rand.New(rand.NewSource(time.Now().UnixNano())).Intn(1_000_000)
	email := fmt.Sprintf("smoke_%d@roundtable.hold", suffix)
	username := fmt.Sprintf("smoke_%d", suffix)
	pass := "SmokeTest1!aa"

	// Register.
	var out envelope
	postJSON(client, *base+"/api/register", map[string]string{
		"email": email, "username": username, "password": pass,
	}, &out)
	if !out.Success {
		fatal("register failed: %s", out.Message)
	}
	step("register ok")

	// Profile with the fresh session.
	var prof profile
	getJSON(client, *base+"/api/profile", &prof)
	if !prof.Success || prof.Email != email || prof.Username != username {
		fatal("profile mismatch: %+v", prof)
	}
	step("profile ok")

	// Logout.
	getJSON(client, *base+"/api/logout", &out)
	if !out.Success {
		fatal("logout failed: %s", out.Message)
	}
	step("logout ok")

	// Profile must now be rejected.
	resp, err := client.Get(*base + "/api/profile")
	if err != nil {
		fatal("profile after logout: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		fatal("profile after logout: status=%d want 401", resp.StatusCode)
	}
	step("auth guard ok")

	// Wrong password gets the generic failure envelope.
	postJSON(client, *base+"/api/login", map[string]string{
		"email": email, "password": "WrongPassword1!",
	}, &out)
	if out.Success || out.Message != "Invalid email or password" {
		fatal("wrong-password login: %+v", out)
	}
	step("login failure envelope ok")

	// Correct login restores the session.
	postJSON(client, *base+"/api/login", map[string]string{
		"email": email, "password": pass,
	}, &out)
	if !out.Success {
		fatal("login failed: %s", out.Message)
	}
	getJSON(client, *base+"/api/profile", &prof)
	if !prof.Success {
		fatal("profile after login failed")
	}
	step("login ok")

	fmt.Println("SMOKE PASS")
}

func postJSON(client *http.Client, url string, body any, out any) {
	raw, err := json.Marshal(body)
	if err != nil {
		fatal("marshal: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		fatal("POST %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		fatal("decode %s: %v", url, err)
	}
}

func getJSON(client *http.Client, url string, out any) {
	resp, err := client.Get(url)
	if err != nil {
		fatal("GET %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		fatal("decode %s: %v", url, err)
	}
}

func step(msg string) { fmt.Println("  - " + msg) }

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "SMOKE FAIL: "+format+"\n", args...)
	os.Exit(1)
}
