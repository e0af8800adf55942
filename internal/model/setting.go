package model

// Settings is the site-wide key/value configuration shown on public pages
// (company name, phone, address, social links).
type Settings map[string]string
