package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/gocd"
	"github.com/avast/retry-go/v4"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const AcceptHeader = "application/vnd.go.cd+json"

const unknownMaterialTestError = "There was an unknown error while checking connection"

const (
	mergedEnvironmentsPath = "/api/admin/internal/environments/merged"
	environmentsPath       = "/api/admin/environments"
	pipelineStructurePath  = "/api/internal/pipeline_structure"
	pipelineConfigPath     = "/api/admin/pipelines"
	agentsPath             = "/api/agents"
	materialTestPath       = "/api/admin/internal/material_test"
)

// HTTPClient is satisfied by *http.Client and lets tests replace the transport.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type GoCDClient interface {
	GetPipelineStructure(ctx context.Context) (gocd.PipelineStructure, error)
	GetPipelineConfig(ctx context.Context, name string) (pipeline *gocd.Pipeline, exists bool, funcErr error)
	GetMergedEnvironments(ctx context.Context) ([]*gocd.Environment, error)
	GetEnvironment(ctx context.Context, name string) (environment *gocd.Environment, exists bool, funcErr error)
	CreateEnvironment(ctx context.Context, environment *gocd.Environment) (*gocd.Environment, error)
	PatchEnvironment(ctx context.Context, name string, patch gocd.EnvironmentPatch) (*gocd.Environment, error)
	DeleteEnvironment(ctx context.Context, name string) (string, error)
	GetAgents(ctx context.Context) ([]gocd.Agent, error)
	TestMaterialConnection(ctx context.Context, material *gocd.Material, pipelineName string) (gocd.MaterialTestResult, error)
}

type GoCDApiClient struct {
	// Url is the server url including the context path, e.g. https://ci.example.org/go
	Url      string
	Username string
	Password string
	// Token is a personal access token. It takes precedence over basic authentication.
	Token      string
	HttpClient HTTPClient
	// RetryDelay is the delay between attempts of a failed GET. Defaults to one second.
	RetryDelay time.Duration
	// cache is a map of paths to the bodies of cacheable GET requests
	cache   map[string][]byte
	cacheMu sync.Mutex
	// etags is a map of resource paths to the last ETag the server returned for them
	etags   map[string]string
	etagsMu sync.Mutex
}

type response struct {
	statusCode int
	header     http.Header
	body       []byte
}

func NewGoCDApiClient(serverUrl string, username string, password string, token string) *GoCDApiClient {
	return &GoCDApiClient{
		Url:        strings.TrimSuffix(serverUrl, "/"),
		Username:   username,
		Password:   password,
		Token:      token,
		HttpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (o *GoCDApiClient) GetPipelineStructure(ctx context.Context) (gocd.PipelineStructure, error) {
	structure := gocd.PipelineStructure{}
	_, err := o.getResource(ctx, pipelineStructurePath, &structure)
	return structure, err
}

func (o *GoCDApiClient) GetPipelineConfig(ctx context.Context, name string) (*gocd.Pipeline, bool, error) {
	path := pipelineConfigPath + "/" + url.PathEscape(name)
	pipeline := &gocd.Pipeline{}

	exists, err := o.getResource(ctx, path, pipeline)
	if err != nil || !exists {
		return nil, exists, err
	}

	pipeline.ETag = o.readETag(path)
	return pipeline, true, nil
}

func (o *GoCDApiClient) GetMergedEnvironments(ctx context.Context) ([]*gocd.Environment, error) {
	collection := gocd.EmbeddedCollection[*gocd.Environment]{}
	if _, err := o.getResource(ctx, mergedEnvironmentsPath, &collection); err != nil {
		return nil, err
	}

	return collection.Items(), nil
}

func (o *GoCDApiClient) GetEnvironment(ctx context.Context, name string) (*gocd.Environment, bool, error) {
	path := environmentsPath + "/" + url.PathEscape(name)
	environment := &gocd.Environment{}

	exists, err := o.getResource(ctx, path, environment)
	if err != nil || !exists {
		return nil, exists, err
	}

	environment.ETag = o.readETag(path)
	return environment, true, nil
}

// CreateEnvironment posts the locally defined parts of environment. A rejected environment is returned along
// with the error, with the server's field errors loaded into its error bags.
func (o *GoCDApiClient) CreateEnvironment(ctx context.Context, environment *gocd.Environment) (*gocd.Environment, error) {
	created := &gocd.Environment{}
	err := o.mutate(ctx, http.MethodPost, environmentsPath, environment.CreateRequest(), created)

	if err != nil {
		return o.rejectedEnvironment(err, environment), err
	}

	// The server answers the POST with the ETag of the new environment.
	path := environmentsPath + "/" + url.PathEscape(created.Name)
	if etag := o.readETag(environmentsPath); etag != "" {
		o.forgetETag(environmentsPath)
		o.recordETag(path, http.Header{"Etag": []string{etag}})
	}

	created.ETag = o.readETag(path)
	return created, nil
}

func (o *GoCDApiClient) PatchEnvironment(ctx context.Context, name string, patch gocd.EnvironmentPatch) (*gocd.Environment, error) {
	path := environmentsPath + "/" + url.PathEscape(name)
	patched := &gocd.Environment{}

	if err := o.mutate(ctx, http.MethodPatch, path, patch, patched); err != nil {
		return o.rejectedEnvironment(err, nil), err
	}

	patched.ETag = o.readETag(path)
	return patched, nil
}

// DeleteEnvironment returns the confirmation message from the server.
func (o *GoCDApiClient) DeleteEnvironment(ctx context.Context, name string) (string, error) {
	path := environmentsPath + "/" + url.PathEscape(name)
	message := gocd.MessageResponse{}

	if err := o.mutate(ctx, http.MethodDelete, path, nil, &message); err != nil {
		return "", err
	}

	o.forgetETag(path)
	return message.Message, nil
}

func (o *GoCDApiClient) GetAgents(ctx context.Context) ([]gocd.Agent, error) {
	collection := gocd.EmbeddedCollection[gocd.Agent]{}
	if _, err := o.getResource(ctx, agentsPath, &collection); err != nil {
		return nil, err
	}

	return collection.Items(), nil
}

// TestMaterialConnection asks the server to check out the material. A failed check is reported in the result,
// not as an error. Errors are reserved for requests that could not be made.
func (o *GoCDApiClient) TestMaterialConnection(ctx context.Context, material *gocd.Material, pipelineName string) (gocd.MaterialTestResult, error) {
	payload := map[string]any{
		"type":          material.Type,
		"attributes":    material.Attributes,
		"pipeline_name": pipelineName,
	}

	message := gocd.MessageResponse{}
	err := o.mutate(ctx, http.MethodPost, materialTestPath, payload, &message)

	var apiError *ApiError
	if errors.As(err, &apiError) {
		return gocd.MaterialTestResult{Success: false, Message: lo.Ternary(apiError.Message != http.StatusText(apiError.StatusCode), apiError.Message, unknownMaterialTestError)}, nil
	}

	if err != nil {
		return gocd.MaterialTestResult{}, err
	}

	return gocd.MaterialTestResult{Success: true, Message: message.Message}, nil
}

func (o *GoCDApiClient) rejectedEnvironment(err error, fallback *gocd.Environment) *gocd.Environment {
	var apiError *ApiError
	if errors.As(err, &apiError) {
		rejected := &gocd.Environment{}
		if apiError.DecodeData(rejected) {
			return rejected
		}
	}

	return fallback
}

// getResource reads path into resources. A 404 is reported as exists == false rather than as an error.
func (o *GoCDApiClient) getResource(ctx context.Context, path string, resources any) (exists bool, funcErr error) {
	cacheHit := o.readCache(path)
	if cacheHit != nil {
		zap.L().Debug("Cache hit on " + path)
		return true, o.unmarshal(resources, cacheHit)
	}

	zap.L().Debug("Getting " + path)

	res, err := retry.DoWithData(func() (*response, error) {
		res, err := o.send(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}

		if res.statusCode == http.StatusNotFound {
			return res, nil
		}

		if res.statusCode != http.StatusOK {
			return nil, newApiError(http.MethodGet, path, res.statusCode, res.body)
		}

		return res, nil
	},
		retry.Attempts(3),
		retry.Delay(lo.Ternary(o.RetryDelay == 0, 1*time.Second, o.RetryDelay)),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable))

	if err != nil {
		return false, err
	}

	if res.statusCode == http.StatusNotFound {
		return false, nil
	}

	o.recordETag(path, res.header)
	o.cacheResult(path, res.body)

	return true, o.unmarshal(resources, res.body)
}

// mutate sends a POST, PATCH, PUT or DELETE. These are never retried, carry the confirmation header, and
// carry If-Match when the resource's ETag is known.
func (o *GoCDApiClient) mutate(ctx context.Context, method string, path string, body any, result any) error {
	zap.L().Debug(method + " " + path)

	res, err := o.send(ctx, method, path, body)
	if err != nil {
		return err
	}

	o.invalidateCache(path)

	if res.statusCode < 200 || res.statusCode > 299 {
		return newApiError(method, path, res.statusCode, res.body)
	}

	o.recordETag(path, res.header)

	if result == nil || len(res.body) == 0 {
		return nil
	}

	return o.unmarshal(result, res.body)
}

func (o *GoCDApiClient) send(ctx context.Context, method string, path string, body any) (res *response, funcErr error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, o.Url+path, reader)
	if err != nil {
		return nil, err
	}

	o.setHeaders(req, method, path, body != nil)

	httpResponse, err := o.httpClient().Do(req)
	if err != nil {
		return nil, err
	}

	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			funcErr = errors.Join(funcErr, err)
		}
	}(httpResponse.Body)

	responseBody, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return nil, err
	}

	return &response{statusCode: httpResponse.StatusCode, header: httpResponse.Header, body: responseBody}, nil
}

func (o *GoCDApiClient) setHeaders(req *http.Request, method string, path string, hasBody bool) {
	req.Header.Set("Accept", AcceptHeader)

	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}

	if o.Token != "" {
		req.Header.Set("Authorization", "Bearer "+o.Token)
	} else if o.Username != "" {
		req.SetBasicAuth(o.Username, o.Password)
	}

	if method == http.MethodGet {
		return
	}

	req.Header.Set("X-GoCD-Confirm", "true")

	if etag := o.readETag(path); etag != "" {
		req.Header.Set("If-Match", etag)
	}
}

func (o *GoCDApiClient) httpClient() HTTPClient {
	if o.HttpClient == nil {
		return http.DefaultClient
	}

	return o.HttpClient
}

func (o *GoCDApiClient) unmarshal(resources any, body []byte) error {
	err := json.Unmarshal(body, resources)

	if err != nil {
		zap.L().Error(string(body))
		return err
	}

	return nil
}

func (o *GoCDApiClient) readETag(path string) string {
	o.etagsMu.Lock()
	defer o.etagsMu.Unlock()

	return o.etags[path]
}

func (o *GoCDApiClient) recordETag(path string, header http.Header) {
	etag := header.Get("ETag")
	if etag == "" {
		return
	}

	o.etagsMu.Lock()
	defer o.etagsMu.Unlock()

	if o.etags == nil {
		o.etags = map[string]string{}
	}

	o.etags[path] = etag
}

func (o *GoCDApiClient) forgetETag(path string) {
	o.etagsMu.Lock()
	defer o.etagsMu.Unlock()

	delete(o.etags, path)
}

func (o *GoCDApiClient) readCache(path string) []byte {
	o.cacheMu.Lock()
	defer o.cacheMu.Unlock()

	if val, ok := o.cache[path]; ok {
		return val
	}

	return nil
}

func (o *GoCDApiClient) cacheResult(path string, body []byte) {
	// Only the pipeline structure, agents and pipeline configs are looked up repeatedly by the exporters.
	// Environments are always read fresh because they are edited.
	if path != pipelineStructurePath && path != agentsPath && !strings.HasPrefix(path, pipelineConfigPath+"/") {
		return
	}

	o.cacheMu.Lock()
	defer o.cacheMu.Unlock()

	if o.cache == nil {
		o.cache = map[string][]byte{}
	}

	o.cache[path] = body
}

// invalidateCache drops cached bodies that a mutation of path may have changed.
func (o *GoCDApiClient) invalidateCache(path string) {
	if !strings.HasPrefix(path, environmentsPath) {
		return
	}

	o.cacheMu.Lock()
	defer o.cacheMu.Unlock()

	delete(o.cache, pipelineStructurePath)
	delete(o.cache, agentsPath)
}
