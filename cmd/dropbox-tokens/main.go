// Command dropbox-tokens walks through the one-time Dropbox OAuth flow
// and prints the env lines the server needs. Run it once per app, paste
// the output into .env, and the server refreshes tokens on its own from
// then on.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	authorizeURL = "https://www.dropbox.com/oauth2/authorize"
	tokenURL     = "https://api.dropboxapi.com/oauth2/token"
	redirectURI  = "http://localhost:3002/auth/dropbox/callback"
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Error        string `json:"error"`
	ErrorDesc    string `json:"error_description"`
}

func main() {
	appKey := flag.String("key", "", "Dropbox app key (prompted if empty)")
	appSecret := flag.String("secret", "", "Dropbox app secret (prompted if empty)")
	flag.Parse()

	in := bufio.NewReader(os.Stdin)
	key := promptIfEmpty(in, *appKey, "Dropbox app key: ")
	secret := promptIfEmpty(in, *appSecret, "Dropbox app secret: ")

	q := url.Values{}
	q.Set("client_id", key)
	q.Set("response_type", "code")
	q.Set("token_access_type", "offline")
	q.Set("redirect_uri", redirectURI)

	fmt.Println("Visit this URL in your browser and authorize the app:")
	fmt.Println()
	fmt.Println("  " + authorizeURL + "?" + q.Encode())
	fmt.Println()
	fmt.Println("You will be redirected to " + redirectURI + "?code=...")
	fmt.Println("Copy the code parameter from that URL.")
	fmt.Println()

	code := promptIfEmpty(in, "", "Authorization code: ")

	form := url.Values{}
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", key)
	form.Set("client_secret", secret)
	form.Set("redirect_uri", redirectURI)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.PostForm(tokenURL, form)
	if err != nil {
		fmt.Fprintln(os.Stderr, "token exchange failed:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		fmt.Fprintln(os.Stderr, "could not decode token response:", err)
		os.Exit(1)
	}
	if tok.AccessToken == "" {
		fmt.Fprintf(os.Stderr, "token exchange rejected: %s %s (status %d)\n",
			tok.Error, tok.ErrorDesc, resp.StatusCode)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("Add these lines to your .env file:")
	fmt.Println()
	fmt.Println("DROPBOX_APP_KEY=" + key)
	fmt.Println("DROPBOX_APP_SECRET=" + secret)
	fmt.Println("DROPBOX_ACCESS_TOKEN=" + tok.AccessToken)
	if tok.RefreshToken != "" {
		fmt.Println("DROPBOX_REFRESH_TOKEN=" + tok.RefreshToken)
	} else {
		fmt.Println()
		fmt.Println("Warning: no refresh token was returned. The access token will")
		fmt.Println("expire and cannot be renewed. Check that the app's OAuth 2 type")
		fmt.Println("allows offline access and run this again.")
	}
	if tok.ExpiresIn > 0 {
		fmt.Printf("\nAccess token expires in %d minutes.\n", tok.ExpiresIn/60)
	}
}

func promptIfEmpty(in *bufio.Reader, v, prompt string) string {
	v = strings.TrimSpace(v)
	for v == "" {
		fmt.Print(prompt)
		line, err := in.ReadString('\n')
		if err != nil {
			fmt.Fprintln(os.Stderr, "input aborted")
			os.Exit(1)
		}
		v = strings.TrimSpace(line)
	}
	return v
}
