package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// UploadResult describes one file stored by the server.
type UploadResult struct {
	URL           string    `json:"url"`
	Name          string    `json:"name"`
	Size          int64     `json:"size"`
	ExpiresAt     time.Time `json:"expires_at"`
	ExpiresInDays int       `json:"expires_in_days"`
}

// UploadResponse is the server's JSON answer to an upload.
type UploadResponse struct {
	Files []UploadResult `json:"files"`
}

// Client uploads files to an ofu server.
type Client struct {
	BaseURL    string
	User       string
	Password   string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Minute,
		},
	}
}

// UploadFiles sends every file in one multipart request.
func (c *Client) UploadFiles(paths ...string) (*UploadResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, path := range paths {
		if err := addFile(writer, path); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish request body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.BaseURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if c.User != "" {
		req.SetBasicAuth(c.User, c.Password)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

func addFile(writer *multipart.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	part, err := writer.CreateFormFile("files[]", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}
	return nil
}

func formatDaysRemaining(days int) string {
	switch {
	case days <= 0:
		return "less than a day"
	case days == 1:
		return "1 day"
	default:
		return fmt.Sprintf("%d days", days)
	}
}

func printUploadResponse(w io.Writer, resp *UploadResponse) {
	for _, f := range resp.Files {
		fmt.Fprintf(w, "%s\t(expires %s, in %s)\n",
			f.URL, f.ExpiresAt.Local().Format("2006-01-02 15:04"), formatDaysRemaining(f.ExpiresInDays))
	}
}

// The upload command keeps its own settings in ~/.ofu/client.yaml.
var clientConfig = viper.New()

var uploadCmd = &cobra.Command{
	Use:     "upload <file>...",
	Aliases: []string{"u", "up"},
	Short:   "Upload files to an ofu server",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(clientConfig.GetString("server"))
		client.User = clientConfig.GetString("user")
		client.Password = clientConfig.GetString("password")

		resp, err := client.UploadFiles(args...)
		if err != nil {
			return err
		}
		printUploadResponse(cmd.OutOrStdout(), resp)
		return nil
	},
}

func init() {
	if homeDir, err := os.UserHomeDir(); err == nil {
		clientConfig.AddConfigPath(filepath.Join(homeDir, ".ofu"))
	}
	clientConfig.SetConfigName("client")
	clientConfig.SetConfigType("yaml")
	clientConfig.SetDefault("server", "http://localhost:8080/")
	_ = clientConfig.ReadInConfig() // the file is optional

	uploadCmd.Flags().StringP("server", "s", "", "Server URL (default: http://localhost:8080/)")
	uploadCmd.Flags().String("user", "", "Basic auth user")
	uploadCmd.Flags().String("password", "", "Basic auth password")

	clientConfig.BindPFlag("server", uploadCmd.Flags().Lookup("server"))
	clientConfig.BindPFlag("user", uploadCmd.Flags().Lookup("user"))
	clientConfig.BindPFlag("password", uploadCmd.Flags().Lookup("password"))
}
