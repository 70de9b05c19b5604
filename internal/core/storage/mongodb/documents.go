package mongodb

import (
	"fmt"
	"time"

	v1 "github.com/aevon-lab/salespulse/internal/api/v1"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// saleDoc is a document of the sales collection. The sale date lives in
// reportDate, the field name existing dashboards already index.
// Money fields may be stored as double, int or decimal128.
type saleDoc struct {
	ID           string        `bson:"_id"`
	CustomerID   string        `bson:"customerId"`
	ProductID    string        `bson:"productId"`
	Quantity     int64         `bson:"quantity"`
	UnitRevenue  bson.RawValue `bson:"unitRevenue,omitempty"`
	TotalRevenue bson.RawValue `bson:"totalRevenue"`
	ReportDate   time.Time     `bson:"reportDate"`
}

func (d *saleDoc) toSale() (*v1.SaleEvent, error) {
	total, err := decimalFromRaw(d.TotalRevenue)
	if err != nil {
		return nil, fmt.Errorf("sale %s totalRevenue: %w", d.ID, err)
	}
	unit, err := decimalFromRaw(d.UnitRevenue)
	if err != nil {
		return nil, fmt.Errorf("sale %s unitRevenue: %w", d.ID, err)
	}
	if unit.IsZero() && d.Quantity > 0 {
		unit = total.DivRound(decimal.NewFromInt(d.Quantity), 2)
	}
	return &v1.SaleEvent{
		ID:           d.ID,
		CustomerID:   d.CustomerID,
		ProductID:    d.ProductID,
		Quantity:     d.Quantity,
		UnitRevenue:  unit,
		TotalRevenue: total,
		OccurredAt:   d.ReportDate.UTC(),
	}, nil
}

func saleToDoc(s *v1.SaleEvent) (bson.D, error) {
	unit, err := toDecimal128(s.UnitRevenue)
	if err != nil {
		return nil, err
	}
	total, err := toDecimal128(s.TotalRevenue)
	if err != nil {
		return nil, err
	}
	return bson.D{
		{Key: "_id", Value: s.ID},
		{Key: "customerId", Value: s.CustomerID},
		{Key: "productId", Value: s.ProductID},
		{Key: "quantity", Value: s.Quantity},
		{Key: "unitRevenue", Value: unit},
		{Key: "totalRevenue", Value: total},
		{Key: "reportDate", Value: s.OccurredAt},
	}, nil
}

type productDoc struct {
	ID       string        `bson:"_id"`
	Name     string        `bson:"name"`
	Category string        `bson:"category"`
	Price    bson.RawValue `bson:"price,omitempty"`
}

func (d *productDoc) toProduct() (*v1.Product, error) {
	price, err := decimalFromRaw(d.Price)
	if err != nil {
		return nil, fmt.Errorf("product %s price: %w", d.ID, err)
	}
	return &v1.Product{ID: d.ID, Name: d.Name, Category: d.Category, Price: price}, nil
}

type customerDoc struct {
	ID     string `bson:"_id"`
	Name   string `bson:"name"`
	Region string `bson:"region"`
	Type   string `bson:"type"`
}

type reportDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	ReportDate    time.Time          `bson:"reportDate"`
	TotalRevenue  bson.RawValue      `bson:"totalRevenue"`
	AvgOrderValue bson.RawValue      `bson:"avgOrderValue"`
}

func (d *reportDoc) toReport() (*v1.Report, error) {
	total, err := decimalFromRaw(d.TotalRevenue)
	if err != nil {
		return nil, fmt.Errorf("report %s totalRevenue: %w", d.ID.Hex(), err)
	}
	avg, err := decimalFromRaw(d.AvgOrderValue)
	if err != nil {
		return nil, fmt.Errorf("report %s avgOrderValue: %w", d.ID.Hex(), err)
	}
	return &v1.Report{
		ID:            d.ID.Hex(),
		ReportDate:    d.ReportDate.UTC(),
		TotalRevenue:  total,
		AvgOrderValue: avg,
	}, nil
}

// decimalFromRaw reads a numeric BSON value. A missing value is zero.
func decimalFromRaw(v bson.RawValue) (decimal.Decimal, error) {
	switch v.Type {
	case 0, bsontype.Null:
		return decimal.Zero, nil
	case bsontype.Double:
		return decimal.NewFromFloat(v.Double()), nil
	case bsontype.Int32:
		return decimal.NewFromInt32(v.Int32()), nil
	case bsontype.Int64:
		return decimal.NewFromInt(v.Int64()), nil
	case bsontype.Decimal128:
		return decimal.NewFromString(v.Decimal128().String())
	case bsontype.String:
		return decimal.NewFromString(v.StringValue())
	default:
		return decimal.Zero, fmt.Errorf("unsupported numeric type %s", v.Type)
	}
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	out, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("convert %s to decimal128: %w", d.String(), err)
	}
	return out, nil
}

// idFilter matches an _id stored either as a string or as the ObjectID
// with the same hex form.
func idFilter(id string) bson.D {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: bson.A{id, oid}}}}}
	}
	return bson.D{{Key: "_id", Value: id}}
}
