package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name StatsProvider --dir ../usecase --output usecase --outpkg usecasemock --filename stats_provider_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Transport --dir ../usecase --output usecase --outpkg usecasemock --filename transport_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Renderer --dir ../usecase --output usecase --outpkg usecasemock --filename renderer_mock.go
