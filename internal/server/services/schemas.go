package services

import (
	"github.com/sazinconstruction/adminkeeper/internal/common"
	"github.com/sazinconstruction/adminkeeper/internal/server/fields"
	"github.com/sazinconstruction/adminkeeper/internal/server/models"
	v "github.com/sazinconstruction/adminkeeper/internal/validate"
)

const maxText = common.MaxTextLength

func safe(max int, msg string) []v.Rule { return []v.Rule{v.R(v.SafeString(1, max), msg)} }

var (
	emailRules    = []v.Rule{v.R(v.IsValidEmail, "Invalid email")}
	passwordRules = safe(maxText, "Invalid password")
)

var registerSchema = fields.Schema{
	{Name: "name", Required: true, Transport: true, Store: fields.StoreSealed, Rules: safe(maxText, "Invalid name")},
	{Name: "email", Required: true, Transport: true, Store: fields.StoreSealed, Rules: emailRules},
	{Name: "password", Required: true, Transport: true, Store: fields.StoreEnvelope, Rules: passwordRules},
	{Name: "confirmPassword", Required: true, Transport: true, Rules: passwordRules},
}

var loginSchema = fields.Schema{
	{Name: "email", Required: true, Transport: true, Rules: emailRules},
	{Name: "password", Required: true, Transport: true, Rules: passwordRules},
}

var profileSchema = fields.Schema{
	{Name: "name", Required: true, Transport: true, Store: fields.StoreSealed, Rules: safe(maxText, "Invalid name")},
	{Name: "email", Required: true, Transport: true, Store: fields.StoreSealed, Rules: emailRules},
	{Name: "phone", Required: true, Store: fields.StorePlain, Rules: []v.Rule{v.R(v.IsValidPhone, "Invalid phone number")}},
	{Name: "position", Required: true, Store: fields.StorePlain, Rules: safe(200, "Invalid position")},
	{Name: "department", Required: true, Store: fields.StorePlain, Rules: safe(200, "Invalid department")},
	{Name: "company", Required: true, Store: fields.StorePlain, Rules: safe(200, "Invalid company")},
	{Name: "location", Required: true, Store: fields.StorePlain, Rules: safe(200, "Invalid location")},
	{Name: "joinDate", Required: true, Store: fields.StorePlain, Rules: []v.Rule{v.R(v.IsValidDate, "Invalid join date")}},
	{Name: "bio", Required: true, Store: fields.StorePlain, Rules: safe(maxText, "Invalid bio")},
	{Name: "linkedin", Required: true, Store: fields.StorePlain, Rules: []v.Rule{v.R(v.IsValidURL, "Invalid linkedin URL")}},
	{Name: "twitter", Required: true, Store: fields.StorePlain, Rules: []v.Rule{v.R(v.IsValidURL, "Invalid twitter URL")}},
}

var changePasswordSchema = fields.Schema{
	{Name: "email", Required: true, Transport: true, Rules: emailRules},
	{Name: "password", Required: true, Transport: true, Rules: passwordRules},
	{Name: "newpassword", Required: true, Transport: true, Store: fields.StoreEnvelope, Rules: passwordRules},
}

var setStatusSchema = fields.Schema{
	{Name: "uid", Required: true, Rules: []v.Rule{v.R(v.IsValidObjectID, "Invalid user ID")}},
	{Name: "email", Required: true, Transport: true, Rules: []v.Rule{v.R(v.IsValidEmail, "Invalid email format")}},
	{Name: "status", Required: true, Rules: []v.Rule{v.R(v.OneOf(string(models.StatusActive), string(models.StatusReject)), "Invalid status value")}},
}

var resetRequestSchema = fields.Schema{
	{Name: "email", Required: true, Transport: true, Rules: emailRules},
}

var resetVerifySchema = fields.Schema{
	{Name: "email", Required: true, Transport: true, Rules: emailRules},
	{Name: "otp", Required: true, Transport: true, Rules: []v.Rule{v.R(v.IsOTP, "Invalid OTP format")}},
	{Name: "newpassword", Required: true, Transport: true, Store: fields.StoreEnvelope, Rules: safe(maxText, "Invalid Password format")},
}
