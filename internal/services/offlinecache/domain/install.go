package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// InstallReport summarizes one installation.
type InstallReport struct {
	CacheName string
	// Cached lists manifest paths stored in the generation, in manifest order.
	Cached []string
	Failed []*AssetError
	// SkipWaiting tells the host to activate without waiting for older
	// workers to release their clients.
	SkipWaiting bool
}

type fetchedAsset struct {
	asset    Asset
	response Response
	err      *AssetError
}

// install opens the current generation and fills it with every manifest asset.
func install(ctx context.Context, cfg Config, storage CacheStorage, network Network, logf func(string, ...any)) (InstallReport, Cache, error) {
	report := InstallReport{CacheName: cfg.CacheName(), SkipWaiting: cfg.SkipWaiting()}

	cache, err := storage.Open(ctx, cfg.CacheName())
	if err != nil {
		return report, nil, fmt.Errorf("open cache %q: %w", cfg.CacheName(), err)
	}

	assets := cfg.Assets()
	fetched := make([]fetchedAsset, len(assets))
	lifetime := NewLifetime(ctx, cfg.InstallConcurrency())
	for i, asset := range assets {
		lifetime.WaitUntil(func(ctx context.Context) error {
			fetched[i] = fetchAsset(ctx, network, asset)
			return nil
		})
	}
	if err := lifetime.Wait(); err != nil {
		return report, nil, err
	}

	if cfg.Policy() == InstallStrict {
		var failures []error
		for _, item := range fetched {
			if item.err != nil {
				report.Failed = append(report.Failed, item.err)
				failures = append(failures, item.err)
			}
		}
		if len(failures) > 0 {
			return report, nil, fmt.Errorf("%w: %w", ErrInstallFailed, errors.Join(failures...))
		}
	}

	for _, item := range fetched {
		if item.err == nil {
			if err := cache.Put(ctx, item.asset.Key, item.response); err != nil {
				item.err = &AssetError{Path: item.asset.Path, Key: item.asset.Key, Err: fmt.Errorf("store: %w", err)}
			}
		}
		if item.err != nil {
			if cfg.Policy() == InstallStrict {
				report.Failed = append(report.Failed, item.err)
				return report, nil, fmt.Errorf("%w: %w", ErrInstallFailed, item.err)
			}
			logf("install %s: skipping %v", cfg.CacheName(), item.err)
			report.Failed = append(report.Failed, item.err)
			continue
		}
		report.Cached = append(report.Cached, item.asset.Path)
	}
	return report, cache, nil
}

func fetchAsset(ctx context.Context, network Network, asset Asset) fetchedAsset {
	response, err := network.Fetch(ctx, Request{Method: http.MethodGet, URL: asset.Key})
	if err != nil {
		return fetchedAsset{asset: asset, err: &AssetError{Path: asset.Path, Key: asset.Key, Err: err}}
	}
	if !response.OK() {
		return fetchedAsset{asset: asset, err: &AssetError{
			Path:   asset.Path,
			Key:    asset.Key,
			Status: response.Status,
			Err:    ErrUnexpectedStatus,
		}}
	}
	if response.URL == "" {
		response.URL = asset.Key
	}
	return fetchedAsset{asset: asset, response: response}
}
