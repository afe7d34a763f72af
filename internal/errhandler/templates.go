package errhandler

import "go-toolrouter/pkg/models"

const genericApology = "I encountered an issue while processing your request. Please try again or rephrase your query."

const (
	invalidEmail  = "The email address you provided appears to be invalid. Please check and try again."
	invalidNumber = "The amount or number you provided is invalid. Please check the format and try again."
)

// DefaultTemplates returns a fresh copy of the canned user-facing messages.
func DefaultTemplates() map[models.ErrorCategory]string {
	return map[models.ErrorCategory]string{
		models.ErrTimeout:    "The request took too long to complete. The service might be slow right now. Please try again in a moment.",
		models.ErrAuth:       "There was an authentication issue. Please check that your API credentials are configured correctly.",
		models.ErrNotFound:   "I couldn't find the resource you're looking for. Please check that the ID or name is correct.",
		models.ErrInvalid:    "Some of the information provided appears to be invalid. Please check your input and try again.",
		models.ErrRateLimit:  "You've made too many requests recently. Please wait a moment before trying again.",
		models.ErrForbidden:  "You don't have permission to perform this action. Please check your access rights.",
		models.ErrServer:     "The service is experiencing issues. Please try again in a few minutes.",
		models.ErrConnection: "I couldn't connect to the service. Please check your internet connection.",
		models.ErrUnknown:    "Something unexpected happened. Please try again or rephrase your request.",
	}
}
