package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/chemworks/diffusio/pkg/diffusion"
	"github.com/chemworks/diffusio/pkg/http/requests"
	"github.com/chemworks/diffusio/pkg/utils"
)

func (h *Handler) CalculPage(c *fiber.Ctx) error {
	return h.render(c, utils.CalculTemplate, fiber.Map{
		"Title": "Diffusion Calculator",
	})
}

// PostCalcul validates the form inputs and redirects to the result page with
// the values in the query string, so results stay bookmarkable.
func (h *Handler) PostCalcul(c *fiber.Ctx) error {
	var req requests.CalculRequest
	if err := c.BodyParser(&req); err != nil {
		return h.renderErrorPage(c, http.StatusBadRequest, "Invalid Form Data",
			"The calculator form data could not be processed.",
			"Please check your input and try again.",
			fmt.Sprintf("ParseForm error: %v", err), utils.CalculURI)
	}

	xa, errXa := strconv.ParseFloat(req.Xa, 64)
	t, errT := strconv.ParseFloat(req.T, 64)
	if errXa != nil || errT != nil {
		return flash.WithError(c, fiber.Map{
			"error": "Both the molar fraction and the temperature must be numbers.",
		}).Redirect(utils.CalculURI, fiber.StatusSeeOther)
	}

	query := url.Values{}
	query.Set("Xa", strconv.FormatFloat(xa, 'g', -1, 64))
	query.Set("T", strconv.FormatFloat(t, 'g', -1, 64))
	return c.Redirect(utils.ResultURI+"?"+query.Encode(), fiber.StatusSeeOther)
}

// ResultPage recomputes the coefficient from the query string values and
// renders them in scientific notation.
func (h *Handler) ResultPage(c *fiber.Ctx) error {
	var req requests.CalculRequest
	if err := c.QueryParser(&req); err != nil {
		return h.render(c, utils.ResultTemplate, fiber.Map{
			"Title": "Result",
			"Error": "The result parameters could not be processed.",
		})
	}

	xa, errXa := strconv.ParseFloat(req.Xa, 64)
	t, errT := strconv.ParseFloat(req.T, 64)
	if errXa != nil || errT != nil {
		return h.render(c, utils.ResultTemplate, fiber.Map{
			"Title": "Result",
			"Error": "Both the molar fraction and the temperature must be numbers.",
		})
	}

	result, err := diffusion.Compute(xa, t)
	if err != nil {
		return h.render(c, utils.ResultTemplate, fiber.Map{
			"Title": "Result",
			"Error": computeErrorMessage(err),
		})
	}
	return h.render(c, utils.ResultTemplate, fiber.Map{
		"Title":  "Result",
		"LnDab":  fmt.Sprintf("%.2e", result.LnDab),
		"Dab":    fmt.Sprintf("%.2e", result.Dab),
		"Erreur": fmt.Sprintf("%.2e", result.Erreur),
		"Xa":     result.Xa,
		"T":      result.T,
	})
}

func computeErrorMessage(err error) string {
	switch {
	case errors.Is(err, diffusion.ErrOutOfRangeFraction):
		return "The molar fraction Xa must be between 0 and 1."
	case errors.Is(err, diffusion.ErrNonPositiveTemperature):
		return "The temperature must be positive."
	case errors.Is(err, diffusion.ErrDegenerateInput):
		return "The molar fraction Xa must be strictly between 0 and 1 for the mixture terms to be defined."
	default:
		return err.Error()
	}
}
