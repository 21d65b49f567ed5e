// Package mocks provides gomock implementations of the ports used by the login flows.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockKVStore(ctrl)
//	store.EXPECT().SetString(gomock.Any(), "token", "abc").Return(nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=kv_store_mock.go github.com/danxi/authgate/internal/ports KVStore
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=transport_mock.go github.com/danxi/authgate/internal/ports Transport
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=materializer_mock.go github.com/danxi/authgate/internal/ports Materializer
