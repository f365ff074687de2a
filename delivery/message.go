package delivery

import (
	"fmt"
	"time"
)

const (
	LangMongolian = "mn"
	LangEnglish   = "en"
)

// DisplayLayout formats delivery dates for the storefront.
const DisplayLayout = "2006-01-02"

var mnWeekdays = [...]string{"Ням", "Даваа", "Мягмар", "Лхагва", "Пүрэв", "Баасан", "Бямба"}

func messages(d time.Time) map[string]string {
	return map[string]string{
		LangMongolian: fmt.Sprintf("%d оны %d сарын %d (%s) гаригт хүргэгдэнэ", d.Year(), int(d.Month()), d.Day(), mnWeekdays[d.Weekday()]),
		LangEnglish:   "Delivered by " + d.Format("Monday, January 2"),
	}
}
