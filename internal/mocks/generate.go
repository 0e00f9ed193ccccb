package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name OverlayStore --dir ../domain/assignment --output domain/assignment --outpkg assignmentmock --filename overlay_store_mock.go
