package mocks

import "github.com/stretchr/testify/mock"

// SNSMock is a mock for svc.SNS
type SNSMock struct {
	mock.Mock
}

// Publish mocks publishing a message to an SNS feed
func (m *SNSMock) Publish(message, topicArn, feed string) error {
	args := m.Called(message, topicArn, feed)
	return args.Error(0)
}
