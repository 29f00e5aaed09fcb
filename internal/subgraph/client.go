// Package subgraph queries the Uniswap V3 GraphQL indexing service.
package subgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"avocado/internal/httpjson"
)

const DefaultURL = "https://api.thegraph.com/subgraphs/name/uniswap/uniswap-v3"

// GraphQLError carries the messages of a non-empty "errors" array.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "graphql: " + strings.Join(e.Messages, ", ")
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Client posts GraphQL documents to a single endpoint.
type Client struct {
	http   *httpjson.Client
	url    string
	tracer trace.Tracer
}

func NewClient(httpClient *httpjson.Client, url string, tracer trace.Tracer) (*Client, error) {
	if httpClient == nil {
		return nil, errors.New("http client is required")
	}
	if url == "" {
		url = DefaultURL
	}
	if tracer == nil {
		tracer = otel.Tracer("avocado/subgraph")
	}
	return &Client{http: httpClient, url: url, tracer: tracer}, nil
}

// Query executes query with variables and decodes the "data" member into out.
func (c *Client) Query(ctx context.Context, name, query string, variables map[string]any, out any) error {
	ctx, span := c.tracer.Start(ctx, "subgraph."+name)
	defer span.End()
	span.SetAttributes(attribute.String("graphql.operation", name))

	if variables == nil {
		variables = map[string]any{}
	}

	var env envelope
	if err := c.http.PostJSON(ctx, c.url, request{Query: query, Variables: variables}, &env); err != nil {
		return c.fail(span, fmt.Errorf("post %s: %w", name, err))
	}
	if len(env.Errors) > 0 {
		gqlErr := &GraphQLError{Messages: make([]string, 0, len(env.Errors))}
		for _, e := range env.Errors {
			gqlErr.Messages = append(gqlErr.Messages, e.Message)
		}
		return c.fail(span, gqlErr)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return c.fail(span, fmt.Errorf("%s: empty data", name))
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return c.fail(span, fmt.Errorf("decode %s: %w", name, err))
	}
	return nil
}

func (c *Client) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
