package pii

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectEmail(t *testing.T) {
	d := NewDetector()
	findings := d.Detect("SELECT * FROM users WHERE email = 'alice@corp.io'")

	assert.Len(t, findings, 1)
	assert.Equal(t, "EMAIL", findings[0].EntityType)
	assert.Equal(t, "alice@corp.io", findings[0].Text)
}

func TestDetectPhoneBeforeSSN(t *testing.T) {
	d := NewDetector()
	// 10 digits: the phone pattern claims the span before SSN can.
	findings := d.Detect("WHERE phone = '555-123-4567'")

	assert.Len(t, findings, 1)
	assert.Equal(t, "PHONE", findings[0].EntityType)
}

func TestDetectSSN(t *testing.T) {
	d := NewDetector()
	findings := d.Detect("WHERE ssn = '123-45-6789'")

	assert.Len(t, findings, 1)
	assert.Equal(t, "SSN", findings[0].EntityType)
}

func TestDetectCreditCard(t *testing.T) {
	d := NewDetector()
	findings := d.Detect("WHERE card = '4111-1111-1111-1111'")

	assert.Len(t, findings, 1)
	assert.Equal(t, "CREDIT_CARD", findings[0].EntityType)
}

func TestDetectIPAddress(t *testing.T) {
	d := NewDetector()
	findings := d.Detect("WHERE client_ip = '10.42.0.17'")

	assert.Len(t, findings, 1)
	assert.Equal(t, "IP_ADDRESS", findings[0].EntityType)
}

func TestSanitizeReplacesAllFindings(t *testing.T) {
	d := NewDetector()
	in := "SELECT * FROM users WHERE email = 'bob@test.net' AND ssn = '987-65-4321'"

	out := d.Sanitize(in)

	assert.NotContains(t, out, "bob@test.net")
	assert.NotContains(t, out, "987-65-4321")
	assert.Contains(t, out, "user@example.com")
	assert.Contains(t, out, "XXX-XX-XXXX")
}

func TestSanitizedTextIsSafe(t *testing.T) {
	d := NewDetector()
	in := "SELECT * FROM t WHERE email = 'carol@x.org' AND ip = '172.16.5.9' AND card = '4242424242424242'"

	out := d.Sanitize(in)

	assert.True(t, d.IsSafe(out), "re-running the detector on sanitized text must report zero findings")
}

func TestSanitizeIdempotent(t *testing.T) {
	d := NewDetector()
	in := "WHERE email = 'dave@mail.com'"

	once := d.Sanitize(in)
	twice := d.Sanitize(once)

	assert.Equal(t, once, twice)
}

func TestIsSafeCleanQuery(t *testing.T) {
	d := NewDetector()
	assert.True(t, d.IsSafe("SELECT id, name FROM products WHERE price > 100"))
}

func TestDetectMultipleOrdered(t *testing.T) {
	d := NewDetector()
	findings := d.Detect("email 'a@b.co' then ip '10.0.0.1'")

	assert.Len(t, findings, 2)
	assert.Less(t, findings[0].Start, findings[1].Start)
}
