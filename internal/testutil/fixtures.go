package testutil

import "github.com/roach88/oefquery/internal/schema"

// WeatherModel is the weather station data model: three required boolean
// capabilities and one optional.
func WeatherModel() *schema.DataModel {
	return schema.MustDataModel("weather_data", []schema.AttributeSchema{
		schema.Attr("temperature", schema.TypeBool, true, "Provides temperature measurements."),
		schema.Attr("air_pressure", schema.TypeBool, true, "Provides air pressure measurements."),
		schema.Attr("humidity", schema.TypeBool, true, "Provides humidity measurements."),
		schema.Attr("wind_speed", schema.TypeBool, false, "Provides wind speed measurements."),
	}, "All possible weather data.")
}

// WeatherStation describes a station measuring temperature and air
// pressure, and humidity when asked.
func WeatherStation(humidity bool) *schema.Description {
	return schema.MustDescription(WeatherModel(),
		schema.KV("temperature", schema.Bool(true)),
		schema.KV("air_pressure", schema.Bool(true)),
		schema.KV("humidity", schema.Bool(humidity)),
	)
}

// BookModel is the book data model.
func BookModel() *schema.DataModel {
	return schema.MustDataModel("book", []schema.AttributeSchema{
		schema.Attr("title", schema.TypeString, true, "The title of the book."),
		schema.Attr("author", schema.TypeString, true, "The author of the book."),
		schema.Attr("genre", schema.TypeString, true, "The genre of the book."),
		schema.Attr("year", schema.TypeInt, true, "The year of publication of the book."),
		schema.Attr("average_rating", schema.TypeFloat, false, "The average rating of the book."),
		schema.Attr("ebook_available", schema.TypeBool, false, "If the book can be sold as an e-book."),
	}, "A data model to describe books.")
}

// Book describes one book under BookModel.
func Book(title, author, genre string, year int64, rating float64) *schema.Description {
	return schema.MustDescription(BookModel(),
		schema.KV("title", schema.String(title)),
		schema.KV("author", schema.String(author)),
		schema.KV("genre", schema.String(genre)),
		schema.KV("year", schema.Int(year)),
		schema.KV("average_rating", schema.Float(rating)),
	)
}
