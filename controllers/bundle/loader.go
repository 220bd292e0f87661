/*
Copyright 2019 Google LLC.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package bundle fetches the application bundles of jobs.
package bundle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/jellydator/ttlcache/v3"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/googlecloudplatform/streams-operator/api/v1beta1"
)

// Defaults of the loader.
const (
	DefaultAttempts = 30
	DefaultInterval = 1 * time.Second
	DefaultCacheTTL = 10 * time.Minute
	DefaultTimeout  = 30 * time.Second
)

// ErrUnavailable is returned when a bundle cannot be fetched.
var ErrUnavailable = errors.New("bundle unavailable")

// Bundle is the content of an application bundle.
type Bundle struct {
	Name    string
	Content []byte
}

// Digest returns the SHA-256 of the content.
func (b *Bundle) Digest() string {
	var sum = sha256.Sum256(b.Content)
	return hex.EncodeToString(sum[:])
}

// Options of the loader.
type Options struct {
	// Fetch attempts against connection failures.
	Attempts int
	// Spacing of the attempts.
	Interval time.Duration
	// Lifetime of cached bundles.
	CacheTTL time.Duration
	// Timeout of one HTTP request.
	Timeout time.Duration
}

func (o *Options) setDefaults() {
	if o.Attempts <= 0 {
		o.Attempts = DefaultAttempts
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
}

// Loader fetches bundles over HTTP and caches them by namespace and name.
type Loader struct {
	Log logr.Logger

	options Options
	http    *http.Client
	cache   *ttlcache.Cache[string, *Bundle]
}

func NewLoader(options Options, log logr.Logger) *Loader {
	options.setDefaults()
	return &Loader{
		Log:     log,
		options: options,
		http:    &http.Client{Timeout: options.Timeout},
		cache: ttlcache.New[string, *Bundle](
			ttlcache.WithTTL[string, *Bundle](options.CacheTTL)),
	}
}

// Start evicts expired bundles until the context is done.
func (l *Loader) Start(ctx context.Context) error {
	go l.cache.Start()
	<-ctx.Done()
	l.cache.Stop()
	return nil
}

// Load returns the bundle of a job. With the IfNotPresent pull policy a
// cached bundle is returned without fetching.
func (l *Loader) Load(
	ctx context.Context, spec v1beta1.BundleSpec, namespace string) (*Bundle, error) {
	var key = namespace + "/" + spec.Name
	var log = l.Log.WithValues("bundle", key, "url", spec.URL)
	if spec.PullPolicy != v1beta1.BundlePullPolicyAlways {
		if item := l.cache.Get(key); item != nil {
			log.V(1).Info("Using cached bundle")
			return item.Value(), nil
		}
	}

	var bundle *Bundle
	var lastErr error
	var backoff = wait.Backoff{Duration: l.options.Interval, Steps: l.options.Attempts}
	var err = wait.ExponentialBackoff(backoff, func() (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		var content, retriable, err = l.fetch(ctx, spec.URL)
		if err != nil {
			lastErr = err
			if retriable {
				log.Info("Failed to fetch bundle, retrying", "error", err)
				return false, nil
			}
			return false, err
		}
		bundle = &Bundle{Name: spec.Name, Content: content}
		return true, nil
	})
	if err != nil {
		if errors.Is(err, wait.ErrWaitTimeout) && lastErr != nil {
			err = lastErr
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, key, err)
	}
	log.Info("Fetched bundle", "bytes", len(bundle.Content))
	l.cache.Set(key, bundle, ttlcache.DefaultTTL)
	return bundle, nil
}

// fetch downloads the content at url. Connection failures and server errors
// are retriable.
func (l *Loader) fetch(ctx context.Context, url string) ([]byte, bool, error) {
	var req, err = http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/octet-stream")
	req.Header.Set("User-Agent", "streams-operator")
	resp, err := l.http.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode >= 500, fmt.Errorf("%v", resp.Status)
	}
	content, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	return content, false, nil
}
