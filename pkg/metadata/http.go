package metadata

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/yosida95/uritemplate/v3"

	"github.com/fsworks/featurestore-go/pkg/featurestore"
)

// Endpoint templates relative to the API root.
var (
	tmplTrainingDatasets = uritemplate.MustNew(
		"/project/{projectId}/featurestores/{fsId}/trainingdatasets")
	tmplTrainingDatasetByName = uritemplate.MustNew(
		"/project/{projectId}/featurestores/{fsId}/trainingdatasets/{name}{?version}")
	tmplTrainingDatasetByID = uritemplate.MustNew(
		"/project/{projectId}/featurestores/{fsId}/trainingdatasets/{id}")
	tmplCompute = uritemplate.MustNew(
		"/project/{projectId}/featurestores/{fsId}/trainingdatasets/{id}/compute")
	tmplExecution = uritemplate.MustNew(
		"/project/{projectId}/jobs/{jobName}/executions/{executionId}")
	tmplVariables = uritemplate.MustNew("/variables/versions")
)

// Config holds HTTP client configuration.
type Config struct {
	// Host is the scheme://host[:port] of the platform.
	Host string
	// APIRoot is the path prefix of the REST API.
	APIRoot        string
	ProjectID      int
	FeatureStoreID int

	// APIKey authenticates with an ApiKey header. Token authenticates with
	// a JWT bearer; its expiry is checked client-side before each call.
	APIKey string
	Token  string

	// CACertPEM adds a trusted CA for self-hosted deployments.
	CACertPEM []byte

	Timeout time.Duration
}

// HTTPClient implements Client against the platform REST API.
type HTTPClient struct {
	cfg  Config
	http *http.Client
	root string
}

// NewHTTPClient creates a metadata client.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	if cfg.Host == "" {
		return nil, featurestore.NewError(featurestore.CodeValidation, "metadata host is required")
	}
	if cfg.APIKey == "" && cfg.Token == "" {
		return nil, featurestore.NewError(featurestore.CodeAuth, "either an api key or a token is required")
	}
	if cfg.APIRoot == "" {
		cfg.APIRoot = "/hopsworks-api/api"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	hc := &http.Client{Timeout: cfg.Timeout}
	if len(cfg.CACertPEM) > 0 {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(cfg.CACertPEM) {
			return nil, featurestore.NewError(featurestore.CodeValidation, "invalid CA certificate")
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
		hc.Transport = transport
	}

	return &HTTPClient{
		cfg:  cfg,
		http: hc,
		root: strings.TrimSuffix(cfg.Host, "/") + cfg.APIRoot,
	}, nil
}

// restError is the error payload returned by the metadata service.
type restError struct {
	ErrorCode int    `json:"errorCode"`
	ErrorMsg  string `json:"errorMsg"`
	UsrMsg    string `json:"usrMsg"`
	DevMsg    string `json:"devMsg"`
}

func (c *HTTPClient) expand(tmpl *uritemplate.Template, vars uritemplate.Values) (string, error) {
	vars.Set("projectId", uritemplate.String(strconv.Itoa(c.cfg.ProjectID)))
	vars.Set("fsId", uritemplate.String(strconv.Itoa(c.cfg.FeatureStoreID)))
	path, err := tmpl.Expand(vars)
	if err != nil {
		return "", featurestore.WrapError(featurestore.CodeAPI, "expanding endpoint template", err)
	}
	return c.root + path, nil
}

func (c *HTTPClient) authorize(req *http.Request) error {
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "ApiKey "+c.cfg.APIKey)
		return nil
	}

	// bearer tokens are validated server-side; only the expiry is checked
	// here to fail fast with a clear error
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.cfg.Token, claims); err != nil {
		return featurestore.WrapError(featurestore.CodeAuth, "malformed bearer token", err)
	}
	exp, err := claims.GetExpirationTime()
	if err == nil && exp != nil && exp.Before(time.Now()) {
		return featurestore.NewError(featurestore.CodeAuth, "bearer token is expired")
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, url string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return featurestore.WrapError(featurestore.CodeAPI, "encoding request", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return featurestore.WrapError(featurestore.CodeAPI, "building request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if err := c.authorize(req); err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return featurestore.WrapError(featurestore.CodeAPI, "calling metadata service", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return c.apiError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return featurestore.WrapError(featurestore.CodeAPI, "decoding response", err)
	}
	return nil
}

func (c *HTTPClient) apiError(resp *http.Response) error {
	code := featurestore.CodeAPI
	switch resp.StatusCode {
	case http.StatusNotFound:
		code = featurestore.CodeNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		code = featurestore.CodeAuth
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var re restError
	if err := json.Unmarshal(raw, &re); err == nil && (re.ErrorMsg != "" || re.UsrMsg != "") {
		msg := re.ErrorMsg
		if msg == "" {
			msg = re.UsrMsg
		}
		return &featurestore.Error{
			Code:       code,
			Message:    fmt.Sprintf("%s (error code %d)", msg, re.ErrorCode),
			DevMessage: re.DevMsg,
		}
	}
	return featurestore.NewError(code, fmt.Sprintf("metadata service returned %s", resp.Status))
}

// CreateTrainingDataset registers a training dataset.
func (c *HTTPClient) CreateTrainingDataset(ctx context.Context, td featurestore.TrainingDataset) (*featurestore.TrainingDataset, error) {
	url, err := c.expand(tmplTrainingDatasets, uritemplate.Values{})
	if err != nil {
		return nil, err
	}
	var created featurestore.TrainingDataset
	if err := c.do(ctx, http.MethodPost, url, td, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetTrainingDataset fetches a dataset by name and version.
func (c *HTTPClient) GetTrainingDataset(ctx context.Context, name string, version int) (*featurestore.TrainingDataset, error) {
	vars := uritemplate.Values{}
	vars.Set("name", uritemplate.String(name))
	if version > 0 {
		vars.Set("version", uritemplate.String(strconv.Itoa(version)))
	}
	url, err := c.expand(tmplTrainingDatasetByName, vars)
	if err != nil {
		return nil, err
	}
	var td featurestore.TrainingDataset
	if err := c.do(ctx, http.MethodGet, url, nil, &td); err != nil {
		return nil, err
	}
	return &td, nil
}

// DeleteTrainingDataset removes the metadata record and its data.
func (c *HTTPClient) DeleteTrainingDataset(ctx context.Context, id int) error {
	vars := uritemplate.Values{}
	vars.Set("id", uritemplate.String(strconv.Itoa(id)))
	url, err := c.expand(tmplTrainingDatasetByID, vars)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, url, nil, nil)
}

// ComputeTrainingDataset submits a materialization job.
func (c *HTTPClient) ComputeTrainingDataset(ctx context.Context, id int, conf JobConf) (*Execution, error) {
	vars := uritemplate.Values{}
	vars.Set("id", uritemplate.String(strconv.Itoa(id)))
	url, err := c.expand(tmplCompute, vars)
	if err != nil {
		return nil, err
	}
	var exec Execution
	if err := c.do(ctx, http.MethodPost, url, conf, &exec); err != nil {
		return nil, err
	}
	return &exec, nil
}

// GetExecution polls a job execution.
func (c *HTTPClient) GetExecution(ctx context.Context, jobName string, executionID int64) (*Execution, error) {
	vars := uritemplate.Values{}
	vars.Set("jobName", uritemplate.String(jobName))
	vars.Set("executionId", uritemplate.String(strconv.FormatInt(executionID, 10)))
	url, err := c.expand(tmplExecution, vars)
	if err != nil {
		return nil, err
	}
	var exec Execution
	if err := c.do(ctx, http.MethodGet, url, nil, &exec); err != nil {
		return nil, err
	}
	return &exec, nil
}

// Ping probes the metadata service.
func (c *HTTPClient) Ping(ctx context.Context) error {
	url, err := c.expand(tmplVariables, uritemplate.Values{})
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodGet, url, nil, nil)
}

// Verify interface compliance.
var _ Client = (*HTTPClient)(nil)
