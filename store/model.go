package store

import (
	"time"

	"github.com/infigaming-com/dolar-feed/util"
	"github.com/shopspring/decimal"
)

const (
	TableName = "dolar"
	// ValorScale is the number of fractional digits kept by DECIMAL(12,6).
	ValorScale = 6
)

// RatePoint is one exchange-rate observation. Fecha is a UTC wall-clock time;
// its location carries no meaning once stored.
type RatePoint struct {
	Fecha time.Time
	Valor float64
}

// Dolar is the persisted row. At most one row exists per fecha.
type Dolar struct {
	Fecha time.Time       `gorm:"column:fecha;type:datetime;primaryKey"`
	Valor decimal.Decimal `gorm:"column:valor;type:decimal(12,6);not null"`
}

func (Dolar) TableName() string {
	return TableName
}

func (d Dolar) RatePoint() RatePoint {
	return RatePoint{
		Fecha: d.Fecha.UTC(),
		Valor: util.DecimalToFloat(d.Valor),
	}
}
