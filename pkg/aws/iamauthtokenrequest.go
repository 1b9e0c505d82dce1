package aws

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	signer "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

// ElastiCache IAM authentication, see
// https://github.com/redis/go-redis/discussions/2343

const (
	requestProtocol    = "http://"
	paramAction        = "Action"
	paramUser          = "User"
	paramExpires       = "X-Amz-Expires"
	actionName         = "connect"
	serviceName        = "elasticache"
	tokenExpirySeconds = 899

	// hex encoded SHA-256 of an empty string
	emptyBodySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

type iamAuthTokenRequest struct {
	userID    string
	cacheName string
	region    string
	now       func() time.Time
}

func (i *iamAuthTokenRequest) toSignedRequestURI(ctx context.Context, credential aws.Credentials) (string, error) {
	query := url.Values{
		paramAction:  {actionName},
		paramUser:    {i.userID},
		paramExpires: {strconv.FormatInt(int64(tokenExpirySeconds), 10)},
	}
	signURL := url.URL{
		Scheme:   "http",
		Host:     i.cacheName,
		Path:     "/",
		RawQuery: query.Encode(),
	}
	req, err := http.NewRequest(http.MethodGet, signURL.String(), nil)
	if err != nil {
		return "", err
	}

	signedURI, _, err := signer.NewSigner().PresignHTTP(ctx, credential, req, emptyBodySHA256, serviceName, i.region, i.now())
	if err != nil {
		return "", err
	}

	u, err := url.Parse(signedURI)
	if err != nil {
		return "", err
	}
	res := url.URL{
		Scheme:   "http",
		Host:     u.Host,
		Path:     "/",
		RawQuery: u.RawQuery,
	}
	return strings.Replace(res.String(), requestProtocol, "", 1), nil
}

// redisCredentialsProvider returns a go-redis credentials callback that signs
// a fresh IAM auth token for every new connection.
func redisCredentialsProvider(cfg aws.Config, userID string, cacheName string) func(context.Context) (string, string, error) {
	return func(ctx context.Context) (string, string, error) {
		req := iamAuthTokenRequest{
			userID:    userID,
			cacheName: cacheName,
			region:    cfg.Region,
			now:       time.Now,
		}

		credentials, err := cfg.Credentials.Retrieve(ctx)
		if err != nil {
			return "", "", fmt.Errorf("getting aws credentials: %w", err)
		}
		token, err := req.toSignedRequestURI(ctx, credentials)
		if err != nil {
			return "", "", fmt.Errorf("signing redis auth token: %w", err)
		}
		return userID, token, nil
	}
}
