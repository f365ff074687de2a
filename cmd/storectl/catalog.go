package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Gantuuu/Elbeg-sub001/delivery"
	"github.com/Gantuuu/Elbeg-sub001/models"
	"github.com/Gantuuu/Elbeg-sub001/store"
)

// catalogFile is the YAML document accepted by `storectl seed`.
type catalogFile struct {
	Delivery *struct {
		CutoffHour     int `yaml:"cutoff_hour"`
		CutoffMinute   int `yaml:"cutoff_minute"`
		ProcessingDays int `yaml:"processing_days"`
	} `yaml:"delivery"`
	Products []struct {
		Name             string `yaml:"name"`
		NameEn           string `yaml:"name_en"`
		Description      string `yaml:"description"`
		DescriptionEn    string `yaml:"description_en"`
		Category         string `yaml:"category"`
		Price            string `yaml:"price"`
		Stock            int    `yaml:"stock"`
		MinOrderQuantity int    `yaml:"min_order_quantity"`
		ImageURL         string `yaml:"image_url"`
	} `yaml:"products"`
	BankAccounts []struct {
		BankName      string `yaml:"bank_name"`
		AccountNumber string `yaml:"account_number"`
		AccountHolder string `yaml:"account_holder"`
		Default       bool   `yaml:"default"`
	} `yaml:"bank_accounts"`
	NonDeliveryDays []struct {
		Date      string `yaml:"date"`
		Reason    string `yaml:"reason"`
		Recurring bool   `yaml:"recurring"`
	} `yaml:"non_delivery_days"`
}

// catalog is the validated form of catalogFile.
type catalog struct {
	Delivery        *models.DeliverySetting
	Products        []models.Product
	BankAccounts    []models.BankAccount
	NonDeliveryDays []models.NonDeliveryDay
}

func parseCatalog(r io.Reader) (*catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &catalog{}
	if f.Delivery != nil {
		s := delivery.Settings{
			CutoffHour:     f.Delivery.CutoffHour,
			CutoffMinute:   f.Delivery.CutoffMinute,
			ProcessingDays: f.Delivery.ProcessingDays,
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("delivery: %w", err)
		}
		c.Delivery = &models.DeliverySetting{
			CutoffHour:     s.CutoffHour,
			CutoffMinute:   s.CutoffMinute,
			ProcessingDays: s.ProcessingDays,
		}
	}

	for i, p := range f.Products {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, fmt.Errorf("products[%d] %q: invalid price %q", i, p.Name, p.Price)
		}
		m := models.Product{
			Name:             p.Name,
			NameEn:           p.NameEn,
			Description:      p.Description,
			DescriptionEn:    p.DescriptionEn,
			Category:         p.Category,
			Price:            price,
			Stock:            p.Stock,
			MinOrderQuantity: p.MinOrderQuantity,
			ImageURL:         p.ImageURL,
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("products[%d]: %w", i, err)
		}
		c.Products = append(c.Products, m)
	}

	for i, b := range f.BankAccounts {
		m := models.BankAccount{
			BankName:      b.BankName,
			AccountNumber: b.AccountNumber,
			AccountHolder: b.AccountHolder,
			IsDefault:     b.Default,
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("bank_accounts[%d]: %w", i, err)
		}
		c.BankAccounts = append(c.BankAccounts, m)
	}

	for i, d := range f.NonDeliveryDays {
		m := models.NonDeliveryDay{Date: d.Date, Reason: d.Reason, IsRecurringYearly: d.Recurring}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("non_delivery_days[%d]: %w", i, err)
		}
		c.NonDeliveryDays = append(c.NonDeliveryDays, m)
	}
	return c, nil
}

// seedCounts reports how many rows seed created.
type seedCounts struct {
	Products, BankAccounts, NonDeliveryDays int
}

// seed writes c into s. Products are matched by name and bank accounts by
// number so running it twice does not duplicate rows.
func seed(ctx context.Context, s store.Store, c *catalog) (seedCounts, error) {
	var n seedCounts

	if c.Delivery != nil {
		if err := s.SaveDeliverySetting(ctx, c.Delivery); err != nil {
			return n, fmt.Errorf("save delivery settings: %w", err)
		}
	}

	existing, err := s.ListProducts(ctx, "")
	if err != nil {
		return n, err
	}
	names := make(map[string]bool, len(existing))
	for _, p := range existing {
		names[p.Name] = true
	}
	for i := range c.Products {
		p := c.Products[i]
		if names[p.Name] {
			slog.Info("Product exists, skipping", "name", p.Name)
			continue
		}
		if err := s.CreateProduct(ctx, &p); err != nil {
			return n, fmt.Errorf("create product %q: %w", p.Name, err)
		}
		names[p.Name] = true
		n.Products++
	}

	accounts, err := s.ListBankAccounts(ctx)
	if err != nil {
		return n, err
	}
	numbers := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		numbers[a.AccountNumber] = true
	}
	for i := range c.BankAccounts {
		a := c.BankAccounts[i]
		if numbers[a.AccountNumber] {
			continue
		}
		if err := s.CreateBankAccount(ctx, &a); err != nil {
			return n, fmt.Errorf("create bank account %q: %w", a.AccountNumber, err)
		}
		numbers[a.AccountNumber] = true
		n.BankAccounts++
	}

	for i := range c.NonDeliveryDays {
		d := c.NonDeliveryDays[i]
		err := s.CreateNonDeliveryDay(ctx, &d)
		if errors.Is(err, store.ErrDuplicate) {
			continue
		}
		if err != nil {
			return n, fmt.Errorf("create non-delivery day %s: %w", d.Date, err)
		}
		n.NonDeliveryDays++
	}
	return n, nil
}
