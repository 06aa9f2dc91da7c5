package ingest

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/thepalians/reviewer-sub002/internal/model"
)

// Column names recognized in the upload header. Matching is
// case-insensitive after trimming, independent of column order.
const (
	ColBrandName       = "brand_name"
	ColProductName     = "product_name"
	ColProductURL      = "product_url"
	ColRewardAmount    = "reward_amount"
	ColMarketplaceLink = "marketplace_link"
	ColOrderID         = "order_id"
	ColSellerID        = "seller_id"
	ColSellerName      = "seller_name"
	ColReviewerMobile  = "reviewer_mobile"
	ColReviewerEmail   = "reviewer_email"
	ColNotes           = "notes"
)

// RequiredColumns must all be present in the header or the whole batch
// is rejected before any row is processed.
var RequiredColumns = []string{ColBrandName, ColProductName, ColProductURL, ColRewardAmount}

// RawRow is one data row keyed by normalized column name, values trimmed.
type RawRow map[string]string

// Validator checks one row's structural and semantic validity. Rules run
// in a fixed order and stop at the first failure so the operator sees a
// single, specific reason per row.
type Validator struct {
	emailRegex  *regexp.Regexp
	mobileRegex *regexp.Regexp
}

func NewValidator() *Validator {
	return &Validator{
		emailRegex:  regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`),
		mobileRegex: regexp.MustCompile(`^[0-9]{10}$`),
	}
}

func (v *Validator) Validate(row RawRow) error {
	for _, col := range RequiredColumns {
		if row[col] == "" {
			return fmt.Errorf("%s is required", col)
		}
	}

	reward, err := strconv.ParseFloat(row[ColRewardAmount], 64)
	if err != nil || reward <= 0 {
		return fmt.Errorf("%s must be a positive number", ColRewardAmount)
	}

	if !isAbsoluteURL(row[ColProductURL]) {
		return fmt.Errorf("Invalid product URL")
	}

	if link := row[ColMarketplaceLink]; link != "" && !isAbsoluteURL(link) {
		return fmt.Errorf("Invalid marketplace link")
	}

	email := row[ColReviewerEmail]
	mobile := row[ColReviewerMobile]
	if email == "" && mobile == "" {
		return fmt.Errorf("Either %s or %s is required", ColReviewerEmail, ColReviewerMobile)
	}

	if email != "" && !v.emailRegex.MatchString(email) {
		return fmt.Errorf("Invalid email address")
	}

	if mobile != "" && !v.mobileRegex.MatchString(mobile) {
		return fmt.Errorf("Invalid mobile number (must be 10 digits)")
	}

	if sellerID := row[ColSellerID]; sellerID != "" {
		id, err := strconv.ParseInt(sellerID, 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("%s must be a positive integer", ColSellerID)
		}
	}

	return nil
}

// ParseRow builds the typed row from raw cells. Call only after Validate
// has passed; numeric fields are assumed parseable here.
func ParseRow(row RawRow) model.TaskRow {
	reward, _ := strconv.ParseFloat(row[ColRewardAmount], 64)

	parsed := model.TaskRow{
		BrandName:       row[ColBrandName],
		ProductName:     row[ColProductName],
		ProductURL:      row[ColProductURL],
		RewardAmount:    reward,
		MarketplaceLink: row[ColMarketplaceLink],
		OrderID:         row[ColOrderID],
		SellerName:      row[ColSellerName],
		ReviewerMobile:  row[ColReviewerMobile],
		ReviewerEmail:   row[ColReviewerEmail],
		Notes:           row[ColNotes],
	}

	if sellerID := row[ColSellerID]; sellerID != "" {
		if id, err := strconv.ParseInt(sellerID, 10, 64); err == nil {
			parsed.SellerID = &id
		}
	}

	return parsed
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func normalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
