package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateMessageBody(t *testing.T) {
	assert.NoError(t, ValidateMessageBody("привет"))
	assert.NoError(t, ValidateMessageBody("  с пробелами по краям  "))
	assert.NoError(t, ValidateMessageBody(strings.Repeat("ф", MaxMessageLength)))

	assert.Error(t, ValidateMessageBody(""))
	assert.Error(t, ValidateMessageBody("   \n\t  "))
	assert.Error(t, ValidateMessageBody(strings.Repeat("ф", MaxMessageLength+1)))
}

func TestValidateReportInfo(t *testing.T) {
	assert.NoError(t, ValidateReportInfo(nil))

	empty := ""
	assert.NoError(t, ValidateReportInfo(&empty))

	ok := "повторяющийся спам в личных сообщениях"
	assert.NoError(t, ValidateReportInfo(&ok))

	tooLong := strings.Repeat("ф", MaxReportInfoLength+1)
	assert.Error(t, ValidateReportInfo(&tooLong))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("student@example.com"))
	assert.NoError(t, ValidateEmail("first.last+tag@uni.edu"))

	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("no-at-sign"))
	assert.Error(t, ValidateEmail("two@@example.com"))
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("ivan_petrov"))

	assert.Error(t, ValidateUsername(""))
	assert.Error(t, ValidateUsername("ab"))
	assert.Error(t, ValidateUsername("1starts_with_digit"))
	assert.Error(t, ValidateUsername("кириллица"))
}
