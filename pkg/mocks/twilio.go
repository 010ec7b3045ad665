package mocks

import (
	"net/url"

	"github.com/sfreiberg/gotwilio"
	"github.com/stretchr/testify/mock"
)

// TwilioClientMock is a mock for Twilio
type TwilioClientMock struct {
	mock.Mock
}

// SendSMS mocks sending Twilio SMS
func (m *TwilioClientMock) SendSMS(from, to, body, statusCallback, applicationSid string) (*gotwilio.SmsResponse, *gotwilio.Exception, error) {
	args := m.Called(from, to, body, statusCallback, applicationSid)
	var res *gotwilio.SmsResponse
	if r := args.Get(0); r != nil {
		res = r.(*gotwilio.SmsResponse)
	}
	var exc *gotwilio.Exception
	if e := args.Get(1); e != nil {
		exc = e.(*gotwilio.Exception)
	}
	return res, exc, args.Error(2)
}

// GenerateSignature mocks computing a Twilio request signature
func (m *TwilioClientMock) GenerateSignature(url string, form url.Values) ([]byte, error) {
	args := m.Called(url, form)
	return []byte(args.String(0)), args.Error(1)
}
