package mocks

//go:generate go tool counterfeiter -generate
//counterfeiter:generate -o=notify.notifier.mock.go ../notify Notifier
//counterfeiter:generate -o=metrics.client.mock.go ../telemetry/metrics/base Client
//counterfeiter:generate -o=awslib.uploader.mock.go ../awslib Uploader
