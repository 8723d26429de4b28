package graphqlapi

import (
	"math"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"

	"github.com/pdash/dashboard-gateway/internal/gateway"
	"github.com/pdash/dashboard-gateway/internal/pubsub"
	"github.com/pdash/dashboard-gateway/internal/subscription"
)

// proximityTolerance is how close (in degrees) a published weather update
// must be to a subscriber's coordinates to be delivered.
const proximityTolerance = 0.01

// jsonScalar passes decoded upstream payloads (candle sets, search hits)
// through the schema without retyping every provider field.
var jsonScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "JSON",
	Description: "Arbitrary JSON value forwarded from an upstream provider.",
	Serialize:   func(value any) any { return value },
	ParseValue:  func(value any) any { return value },
	ParseLiteral: func(valueAST ast.Value) any {
		return valueAST.GetValue()
	},
})

func scalarFields(spec map[string]graphql.Output) graphql.Fields {
	fields := graphql.Fields{}
	for name, t := range spec {
		fields[name] = &graphql.Field{Type: t}
	}
	return fields
}

var currentWeatherType = graphql.NewObject(graphql.ObjectConfig{
	Name: "CurrentWeather",
	Fields: scalarFields(map[string]graphql.Output{
		"time":          graphql.String,
		"temperature":   graphql.Float,
		"feelsLike":     graphql.Float,
		"humidity":      graphql.Int,
		"windSpeed":     graphql.Float,
		"windDirection": graphql.Int,
		"code":          graphql.Int,
		"description":   graphql.String,
		"icon":          graphql.String,
		"isDay":         graphql.Boolean,
	}),
})

var forecastDayType = graphql.NewObject(graphql.ObjectConfig{
	Name: "ForecastDay",
	Fields: scalarFields(map[string]graphql.Output{
		"date":        graphql.String,
		"tempMax":     graphql.Float,
		"tempMin":     graphql.Float,
		"precipProb":  graphql.Int,
		"code":        graphql.Int,
		"description": graphql.String,
		"icon":        graphql.String,
	}),
})

var hourlyPointType = graphql.NewObject(graphql.ObjectConfig{
	Name: "HourlyPoint",
	Fields: scalarFields(map[string]graphql.Output{
		"time":        graphql.String,
		"temperature": graphql.Float,
		"precipProb":  graphql.Int,
		"code":        graphql.Int,
		"description": graphql.String,
		"icon":        graphql.String,
	}),
})

var weatherBundleType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Weather",
	Fields: graphql.Fields{
		"current":  &graphql.Field{Type: currentWeatherType},
		"forecast": &graphql.Field{Type: graphql.NewList(forecastDayType)},
		"hourly":   &graphql.Field{Type: graphql.NewList(hourlyPointType)},
	},
})

var airQualityType = graphql.NewObject(graphql.ObjectConfig{
	Name: "AirQuality",
	Fields: scalarFields(map[string]graphql.Output{
		"aqi":  graphql.Int,
		"co":   graphql.Float,
		"no2":  graphql.Float,
		"o3":   graphql.Float,
		"pm25": graphql.Float,
		"pm10": graphql.Float,
	}),
})

var historicalDayType = graphql.NewObject(graphql.ObjectConfig{
	Name: "HistoricalDay",
	Fields: scalarFields(map[string]graphql.Output{
		"date":        graphql.String,
		"tempMax":     graphql.Float,
		"tempMin":     graphql.Float,
		"precip":      graphql.Float,
		"code":        graphql.Int,
		"description": graphql.String,
		"icon":        graphql.String,
	}),
})

var cityType = graphql.NewObject(graphql.ObjectConfig{
	Name: "City",
	Fields: scalarFields(map[string]graphql.Output{
		"name":    graphql.String,
		"country": graphql.String,
		"admin1":  graphql.String,
		"lat":     graphql.Float,
		"lon":     graphql.Float,
	}),
})

var stockQuoteType = graphql.NewObject(graphql.ObjectConfig{
	Name: "StockQuote",
	Fields: scalarFields(map[string]graphql.Output{
		"symbol":        graphql.String,
		"current":       graphql.Float,
		"change":        graphql.Float,
		"percentChange": graphql.Float,
		"high":          graphql.Float,
		"low":           graphql.Float,
		"open":          graphql.Float,
		"previousClose": graphql.Float,
	}),
})

var cryptoPriceType = graphql.NewObject(graphql.ObjectConfig{
	Name: "CryptoPrice",
	Fields: scalarFields(map[string]graphql.Output{
		"id":        graphql.String,
		"price":     graphql.Float,
		"change24h": graphql.Float,
		"marketCap": graphql.Float,
	}),
})

var podcastFeedType = graphql.NewObject(graphql.ObjectConfig{
	Name: "PodcastFeed",
	Fields: scalarFields(map[string]graphql.Output{
		"id":           graphql.Int,
		"title":        graphql.String,
		"url":          graphql.String,
		"description":  graphql.String,
		"author":       graphql.String,
		"image":        graphql.String,
		"categories":   graphql.String,
		"episodeCount": graphql.Int,
	}),
})

var podcastEpisodeType = graphql.NewObject(graphql.ObjectConfig{
	Name: "PodcastEpisode",
	Fields: scalarFields(map[string]graphql.Output{
		"id":            graphql.Int,
		"title":         graphql.String,
		"description":   graphql.String,
		"datePublished": graphql.Int,
		"enclosureUrl":  graphql.String,
		"duration":      graphql.Int,
		"image":         graphql.String,
	}),
})

var bibleVersionType = graphql.NewObject(graphql.ObjectConfig{
	Name: "BibleVersion",
	Fields: scalarFields(map[string]graphql.Output{
		"id":           graphql.String,
		"abbreviation": graphql.String,
		"name":         graphql.String,
		"language":     graphql.String,
	}),
})

var biblePassageType = graphql.NewObject(graphql.ObjectConfig{
	Name: "BiblePassage",
	Fields: scalarFields(map[string]graphql.Output{
		"reference":   graphql.String,
		"usfm":        graphql.String,
		"translation": graphql.String,
		"text":        graphql.String,
	}),
})

var weatherUpdateType = graphql.NewObject(graphql.ObjectConfig{
	Name: "WeatherUpdate",
	Fields: graphql.Fields{
		"lat":     &graphql.Field{Type: graphql.Float},
		"lon":     &graphql.Field{Type: graphql.Float},
		"current": &graphql.Field{Type: currentWeatherType},
		"at":      &graphql.Field{Type: graphql.DateTime},
	},
})

func coordArgs() graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
	}
}

func floatArg(p graphql.ResolveParams, name string) float64 {
	v, _ := p.Args[name].(float64)
	return v
}

func stringArg(p graphql.ResolveParams, name string) string {
	v, _ := p.Args[name].(string)
	return v
}

func intArg(p graphql.ResolveParams, name string, def int) int {
	if v, ok := p.Args[name].(int); ok {
		return v
	}
	return def
}

// NewSchema builds the full query/subscription schema over the gateway
// service. Each query resolver is a thin call into the service; field errors
// stay scoped to their field and never fail sibling resolvers.
func NewSchema(svc *gateway.Service, poller *subscription.Poller, bus *pubsub.Bus) (graphql.Schema, error) {
	queryFields := graphql.Fields{
		"weather": &graphql.Field{
			Type: weatherBundleType,
			Args: coordArgs(),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return svc.Weather(p.Context, floatArg(p, "lat"), floatArg(p, "lon"))
			},
		},
		"currentWeather": &graphql.Field{
			Type: currentWeatherType,
			Args: coordArgs(),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return svc.CurrentWeather(p.Context, floatArg(p, "lat"), floatArg(p, "lon"))
			},
		},
		"forecast": &graphql.Field{
			Type: graphql.NewList(forecastDayType),
			Args: coordArgs(),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return svc.Forecast(p.Context, floatArg(p, "lat"), floatArg(p, "lon"))
			},
		},
		"hourlyForecast": &graphql.Field{
			Type: graphql.NewList(hourlyPointType),
			Args: coordArgs(),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return svc.HourlyForecast(p.Context, floatArg(p, "lat"), floatArg(p, "lon"))
			},
		},
		"airQuality": &graphql.Field{
			Type: airQualityType,
			Args: coordArgs(),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return svc.AirQuality(p.Context, floatArg(p, "lat"), floatArg(p, "lon"))
			},
		},
		"historicalWeather": &graphql.Field{
			Type: historicalDayType,
			Args: func() graphql.FieldConfigArgument {
				args := coordArgs()
				args["date"] = &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)}
				return args
			}(),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return svc.HistoricalWeather(p.Context, floatArg(p, "lat"), floatArg(p, "lon"), stringArg(p, "date"))
			},
		},
		"searchCities": &graphql.Field{
			Type: graphql.NewList(cityType),
			Args: graphql.FieldConfigArgument{
				"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 5},
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return svc.SearchCities(p.Context, stringArg(p, "query"), intArg(p, "limit", 5))
			},
		},
		"reverseGeocode": &graphql.Field{
			Type: cityType,
			Args: coordArgs(),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return svc.ReverseGeocode(p.Context, floatArg(p, "lat"), floatArg(p, "lon"))
			},
		},
		"cryptoPrices": &graphql.Field{
			Type: graphql.NewList(cryptoPriceType),
			Args: graphql.FieldConfigArgument{
				"ids":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String)))},
				"vsCurrency": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "usd"},
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				raw, _ := p.Args["ids"].([]any)
				ids := make([]string, 0, len(raw))
				for _, v := range raw {
					if s, ok := v.(string); ok {
						ids = append(ids, s)
					}
				}
				return svc.CryptoPrices(p.Context, ids, stringArg(p, "vsCurrency"))
			},
		},
		"searchStocks": &graphql.Field{
			Type: jsonScalar,
			Args: graphql.FieldConfigArgument{
				"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return svc.SearchStocks(p.Context, stringArg(p, "query"))
			},
		},
		"stockQuote": &graphql.Field{
			Type: stockQuoteType,
			Args: graphql.FieldConfigArgument{
				"symbol": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return svc.StockQuote(p.Context, stringArg(p, "symbol"))
			},
		},
		"stockCandles": &graphql.Field{
			Type: jsonScalar,
			Args: graphql.FieldConfigArgument{
				"symbol":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				"resolution": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "D"},
				"from":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				"to":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return svc.StockCandles(p.Context, stringArg(p, "symbol"), stringArg(p, "resolution"),
					int64(intArg(p, "from", 0)), int64(intArg(p, "to", 0)))
			},
		},
		"companyNews": &graphql.Field{
			Type: jsonScalar,
			Args: graphql.FieldConfigArgument{
				"symbol": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				"from":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				"to":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return svc.CompanyNews(p.Context, stringArg(p, "symbol"), stringArg(p, "from"), stringArg(p, "to"))
			},
		},
		"searchPodcasts": &graphql.Field{
			Type: graphql.NewList(podcastFeedType),
			Args: graphql.FieldConfigArgument{
				"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return svc.SearchPodcasts(p.Context, stringArg(p, "query"))
			},
		},
		"trendingPodcasts": &graphql.Field{
			Type: graphql.NewList(podcastFeedType),
			Args: graphql.FieldConfigArgument{
				"max": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return svc.TrendingPodcasts(p.Context, intArg(p, "max", 10))
			},
		},
		"podcastEpisodes": &graphql.Field{
			Type: graphql.NewList(podcastEpisodeType),
			Args: graphql.FieldConfigArgument{
				"feedId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return svc.PodcastEpisodes(p.Context, stringArg(p, "feedId"))
			},
		},
		"podcastFeed": &graphql.Field{
			Type: podcastFeedType,
			Args: graphql.FieldConfigArgument{
				"feedId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return svc.PodcastFeed(p.Context, stringArg(p, "feedId"))
			},
		},
		"bibleVersions": &graphql.Field{
			Type: graphql.NewList(bibleVersionType),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return svc.BibleVersions(p.Context)
			},
		},
		"bibleVotd": &graphql.Field{
			Type: biblePassageType,
			Args: graphql.FieldConfigArgument{
				"day": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return svc.BibleVotd(p.Context, intArg(p, "day", 0))
			},
		},
		"biblePassage": &graphql.Field{
			Type: biblePassageType,
			Args: graphql.FieldConfigArgument{
				"reference":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				"translation": &graphql.ArgumentConfig{Type: graphql.String},
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return svc.BiblePassage(p.Context, stringArg(p, "reference"), stringArg(p, "translation"))
			},
		},
	}

	subscriptionFields := graphql.Fields{
		"weatherUpdates": &graphql.Field{
			Type: weatherUpdateType,
			Args: coordArgs(),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return p.Source, nil
			},
			Subscribe: func(p graphql.ResolveParams) (any, error) {
				lat := floatArg(p, "lat")
				lon := floatArg(p, "lon")
				if err := poller.Subscribe(lat, lon); err != nil {
					return nil, err
				}

				updates, cancel := bus.Subscribe(pubsub.TopicWeather)
				out := make(chan any)
				go func() {
					defer cancel()
					defer close(out)
					for {
						select {
						case <-p.Context.Done():
							return
						case update, ok := <-updates:
							if !ok {
								return
							}
							if math.Abs(update.Lat-lat) > proximityTolerance ||
								math.Abs(update.Lon-lon) > proximityTolerance {
								continue
							}
							select {
							case out <- update:
							case <-p.Context.Done():
								return
							}
						}
					}
				}()
				return out, nil
			},
		},
	}

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name:   "Query",
			Fields: queryFields,
		}),
		Subscription: graphql.NewObject(graphql.ObjectConfig{
			Name:   "Subscription",
			Fields: subscriptionFields,
		}),
	})
}
