// Package mocks provides gomock mocks for the provider boundaries.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	gateway := mocks.NewMockVideoGateway(ctrl)
//	gateway.EXPECT().StartGeneration(gomock.Any(), "a cat", 10).Return("operations/1", nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=video_gateway_mock.go vydio/internal/domain VideoGateway
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=checkout_gateway_mock.go vydio/internal/domain CheckoutGateway
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=webhook_decoder_mock.go vydio/internal/service WebhookDecoder
