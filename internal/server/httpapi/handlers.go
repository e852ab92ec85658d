package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sazinconstruction/adminkeeper/internal/common"
)

// Form part names of the optional profile image.
const (
	registerImageField = "image"
	profileImageField  = "profileImageFile"
)

func ok(c *fiber.Ctx, message string, kv ...any) error {
	body := fiber.Map{"success": true, "message": message}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, isKey := kv[i].(string); isKey {
			body[k] = kv[i+1]
		}
	}
	return c.JSON(body)
}

func (s *HTTPServer) login(c *fiber.Ctx) error {
	sess, err := s.accounts.Login(c.UserContext(), payloadOf(c))
	if err != nil {
		return err
	}
	s.cookies.set(c, sess.Token)
	return ok(c, "Login successful", "user", sess.User)
}

func (s *HTTPServer) register(c *fiber.Ctx) error {
	img, err := upload(c, registerImageField)
	if err != nil {
		return err
	}
	view, err := s.accounts.Register(c.UserContext(), payloadOf(c), img)
	if err != nil {
		return err
	}
	return ok(c, "Registration successful", "user", view)
}

func (s *HTTPServer) logout(c *fiber.Ctx) error {
	s.accounts.Logout(c.UserContext(), c.Cookies(common.SessionCookieName))
	s.cookies.clear(c)
	return ok(c, "Logged out successfully")
}

func (s *HTTPServer) profile(c *fiber.Ctx) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	view, err := s.accounts.GetProfile(c.UserContext(), p, c.Query("uid"))
	if err != nil {
		return err
	}
	return ok(c, "Profile loaded", "data", view)
}

func (s *HTTPServer) updateProfile(c *fiber.Ctx) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	img, err := upload(c, profileImageField)
	if err != nil {
		return err
	}
	sess, err := s.accounts.UpdateProfile(c.UserContext(), p, payloadOf(c), img)
	if err != nil {
		return err
	}
	s.cookies.set(c, sess.Token)
	return ok(c, "Profile update successful", "user", sess.User)
}

func (s *HTTPServer) changePassword(c *fiber.Ctx) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	if err := s.accounts.ChangePassword(c.UserContext(), p, payloadOf(c)); err != nil {
		return err
	}
	return ok(c, "Password changed successfully")
}

func (s *HTTPServer) listAdmins(c *fiber.Ctx) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	admins, err := s.admins.List(c.UserContext(), p)
	if err != nil {
		return err
	}
	return ok(c, "Admins loaded", "admins", admins)
}

func (s *HTTPServer) setAdminStatus(c *fiber.Ctx) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	if err := s.admins.SetStatus(c.UserContext(), p, payloadOf(c)); err != nil {
		return err
	}
	return ok(c, "Admin status updated successfully")
}

func (s *HTTPServer) deleteAdmin(c *fiber.Ctx) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	if err := s.admins.Delete(c.UserContext(), p, c.Query("uid")); err != nil {
		return err
	}
	return ok(c, "Admin deleted successfully")
}

func (s *HTTPServer) requestReset(c *fiber.Ctx) error {
	if err := s.resets.RequestCode(c.UserContext(), payloadOf(c)); err != nil {
		return err
	}
	return ok(c, "OTP sent to your email")
}

func (s *HTTPServer) verifyReset(c *fiber.Ctx) error {
	if err := s.resets.ResetPassword(c.UserContext(), payloadOf(c)); err != nil {
		return err
	}
	return ok(c, "Password changed successfully")
}

func (s *HTTPServer) healthz(c *fiber.Ctx) error {
	report := s.health.CheckHealth(c.UserContext())
	status := fiber.StatusOK
	if !report.Healthy() {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(report)
}

