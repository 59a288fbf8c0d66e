package mocks

//go:generate mockgen -destination=./mock_provider.go -package=mocks github.com/rxtech-lab/argo-ingest/pkg/marketdata/provider Provider
//go:generate mockgen -destination=./mock_fundamentals.go -package=mocks github.com/rxtech-lab/argo-ingest/pkg/marketdata/fundamentals Source
