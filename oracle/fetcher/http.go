package fetcher

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"

	"github.com/kcmikee/orbit/oracle/log"
	"github.com/kcmikee/orbit/oracle/types"
)

var (
	once       sync.Once
	httpClient *http.Client
)

// maxBodySize caps how much of an oracle response is read.
const maxBodySize = 4 << 20

// executorClient returns the shared HTTP client used for every oracle API
// call.
func executorClient() *http.Client {
	once.Do(func() {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	})

	return httpClient
}

// fetchRawData performs a GET and returns the body. Any status other than
// 200 is an ErrOracleAPI carrying the response body. Nothing is retried.
func fetchRawData(ctx context.Context, client *http.Client, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrOracleAPI, "failed to create HTTP request: %v", err)
	}

	req.Header.Set("User-Agent", types.AppName+"/"+types.Version)
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	log.Debugf("GET %s", url)
	res, err := client.Do(req)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrOracleAPI, "request to %s failed: %v", req.URL.Host, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrOracleAPI, "failed to read response body: %v", err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, errorsmod.Wrapf(types.ErrOracleAPI, "unexpected HTTP status: %s (%s)", res.Status, string(body))
	}

	return body, nil
}
