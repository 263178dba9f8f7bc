package providers

import (
	"context"
	"strings"

	"github.com/scrypster/mnemon/pkg/types"
)

// fixtureCatalog holds hardcoded search results that simulate provider API
// responses, for development and installs without provider credentials.
var fixtureCatalog = []types.SearchResult{
	// Movies (TMDB).
	{ProviderRef: types.NewProviderRef("tmdb", "129"), Title: "Spirited Away", Year: 2001, WorkType: types.WorkTypeMovie, CoverURL: "https://image.tmdb.org/t/p/w500/39wmItIWsg5sZMyRUHLkWBcuVCM.jpg"},
	{ProviderRef: types.NewProviderRef("tmdb", "146216"), Title: "Your Name", Year: 2016, WorkType: types.WorkTypeMovie, CoverURL: "https://image.tmdb.org/t/p/w500/q719jXXEzOoYaps6babgKnONONX.jpg"},
	{ProviderRef: types.NewProviderRef("tmdb", "120467"), Title: "The Grand Budapest Hotel", Year: 2014, WorkType: types.WorkTypeMovie, CoverURL: "https://image.tmdb.org/t/p/w500/nX5XotM9yprCKarRH4fzOq1VM1J.jpg"},
	{ProviderRef: types.NewProviderRef("tmdb", "550"), Title: "Fight Club", Year: 1999, WorkType: types.WorkTypeMovie, CoverURL: "https://image.tmdb.org/t/p/w500/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg"},
	{ProviderRef: types.NewProviderRef("tmdb", "13"), Title: "Forrest Gump", Year: 1994, WorkType: types.WorkTypeMovie, CoverURL: "https://image.tmdb.org/t/p/w500/arw2vcBveWOVZr6pxd9XTd1TdQa.jpg"},
	{ProviderRef: types.NewProviderRef("tmdb", "278"), Title: "The Shawshank Redemption", Year: 1994, WorkType: types.WorkTypeMovie, CoverURL: "https://image.tmdb.org/t/p/w500/q6y0Go1tsGEsmtFryDOJo3dEmqu.jpg"},
	{ProviderRef: types.NewProviderRef("tmdb", "238"), Title: "The Godfather", Year: 1972, WorkType: types.WorkTypeMovie, CoverURL: "https://image.tmdb.org/t/p/w500/3bhkrj58Vtu7enYsRolD1fZdja1.jpg"},
	{ProviderRef: types.NewProviderRef("tmdb", "424"), Title: "Schindler's List", Year: 1993, WorkType: types.WorkTypeMovie, CoverURL: "https://image.tmdb.org/t/p/w500/sF1U4EUQS8YHUYjNl3pMGNIQyr0.jpg"},
	{ProviderRef: types.NewProviderRef("tmdb", "389"), Title: "12 Angry Men", Year: 1957, WorkType: types.WorkTypeMovie, CoverURL: "https://image.tmdb.org/t/p/w500/ow3wq89wM8qd5X7hWKxiRfsFf9C.jpg"},
	{ProviderRef: types.NewProviderRef("tmdb", "155"), Title: "The Dark Knight", Year: 2008, WorkType: types.WorkTypeMovie, CoverURL: "https://image.tmdb.org/t/p/w500/qJ2tW6WMUDux911r6m7haRef0WH.jpg"},
	{ProviderRef: types.NewProviderRef("tmdb", "497"), Title: "The Green Mile", Year: 1999, WorkType: types.WorkTypeMovie, CoverURL: "https://image.tmdb.org/t/p/w500/velWPhVMQeQKcxggNEU8YmIo52R.jpg"},
	{ProviderRef: types.NewProviderRef("tmdb", "680"), Title: "Pulp Fiction", Year: 1994, WorkType: types.WorkTypeMovie, CoverURL: "https://image.tmdb.org/t/p/w500/d5iIlFn5s0ImszYzBPb8JPIfbXD.jpg"},
	{ProviderRef: types.NewProviderRef("tmdb", "769"), Title: "GoodFellas", Year: 1990, WorkType: types.WorkTypeMovie, CoverURL: "https://image.tmdb.org/t/p/w500/aKuFiU82s5ISJpGZp7YkIr3kCUd.jpg"},
	{ProviderRef: types.NewProviderRef("tmdb", "27205"), Title: "Inception", Year: 2010, WorkType: types.WorkTypeMovie, CoverURL: "https://image.tmdb.org/t/p/w500/9gk7adHYeDvHkCSEqAvQNLV5Uge.jpg"},
	{ProviderRef: types.NewProviderRef("tmdb", "98"), Title: "Gladiator", Year: 2000, WorkType: types.WorkTypeMovie, CoverURL: "https://image.tmdb.org/t/p/w500/ty8TGRuvJLPUmAR1H1nRIsgwvim.jpg"},

	// TV and anime (TMDB, AniList).
	{ProviderRef: types.NewProviderRef("tmdb", "1355"), Title: "Cowboy Bebop", Year: 1998, WorkType: types.WorkTypeTvAnime, CoverURL: "https://image.tmdb.org/t/p/w500/gZFHBd677gz8V5fyj8SZx5SrqTA.jpg"},
	{ProviderRef: types.NewProviderRef("anilist", "11061"), Title: "Hunter x Hunter", Year: 2011, WorkType: types.WorkTypeTvAnime, CoverURL: "https://s4.anilist.co/file/anilistcdn/media/anime/cover/large/bx11061-sIpercRKikfh.png"},
	{ProviderRef: types.NewProviderRef("anilist", "5114"), Title: "Fullmetal Alchemist: Brotherhood", Year: 2009, WorkType: types.WorkTypeTvAnime, CoverURL: "https://s4.anilist.co/file/anilistcdn/media/anime/cover/large/bx5114-qg9GGO3c8zqF.jpg"},
	{ProviderRef: types.NewProviderRef("anilist", "21"), Title: "One Piece", Year: 1999, WorkType: types.WorkTypeTvAnime, CoverURL: "https://s4.anilist.co/file/anilistcdn/media/anime/cover/large/bx21-YCDoj1EkAxFn.jpg"},
	{ProviderRef: types.NewProviderRef("anilist", "1535"), Title: "Death Note", Year: 2006, WorkType: types.WorkTypeTvAnime, CoverURL: "https://s4.anilist.co/file/anilistcdn/media/anime/cover/large/bx1535-4r88a1tsBEIz.jpg"},
	{ProviderRef: types.NewProviderRef("anilist", "16498"), Title: "Attack on Titan", Year: 2013, WorkType: types.WorkTypeTvAnime, CoverURL: "https://s4.anilist.co/file/anilistcdn/media/anime/cover/large/bx16498-C6FPmWm59CyP.jpg"},
	{ProviderRef: types.NewProviderRef("anilist", "11757"), Title: "Sword Art Online", Year: 2012, WorkType: types.WorkTypeTvAnime, CoverURL: "https://s4.anilist.co/file/anilistcdn/media/anime/cover/large/bx11757-QlamRgbmYlbv.png"},
	{ProviderRef: types.NewProviderRef("anilist", "20958"), Title: "My Hero Academia", Year: 2016, WorkType: types.WorkTypeTvAnime, CoverURL: "https://s4.anilist.co/file/anilistcdn/media/anime/cover/large/bx20958-UMb6Cr4l8YJ8.jpg"},
	{ProviderRef: types.NewProviderRef("anilist", "9253"), Title: "Steins;Gate", Year: 2011, WorkType: types.WorkTypeTvAnime, CoverURL: "https://s4.anilist.co/file/anilistcdn/media/anime/cover/large/bx9253-7pdcVzQSkKxT.png"},
	{ProviderRef: types.NewProviderRef("anilist", "101922"), Title: "Demon Slayer", Year: 2019, WorkType: types.WorkTypeTvAnime, CoverURL: "https://s4.anilist.co/file/anilistcdn/media/anime/cover/large/bx101922-PEn1CTc93blC.jpg"},
	{ProviderRef: types.NewProviderRef("tmdb", "1396"), Title: "Breaking Bad", Year: 2008, WorkType: types.WorkTypeTvAnime, CoverURL: "https://image.tmdb.org/t/p/w500/ggFHVNu6YYI5L9pCfOacjizRGt.jpg"},
	{ProviderRef: types.NewProviderRef("tmdb", "1399"), Title: "Game of Thrones", Year: 2011, WorkType: types.WorkTypeTvAnime, CoverURL: "https://image.tmdb.org/t/p/w500/1XS1oqL89opfnbLl8WnZY1O1uJx.jpg"},

	// Games (IGDB).
	{ProviderRef: types.NewProviderRef("igdb", "7346"), Title: "The Legend of Zelda: Breath of the Wild", Year: 2017, WorkType: types.WorkTypeGame, CoverURL: "https://images.igdb.com/igdb/image/upload/t_cover_big/co3p2d.png"},
	{ProviderRef: types.NewProviderRef("igdb", "26844"), Title: "Hollow Knight", Year: 2017, WorkType: types.WorkTypeGame, CoverURL: "https://images.igdb.com/igdb/image/upload/t_cover_big/co1rgi.png"},
	{ProviderRef: types.NewProviderRef("igdb", "1942"), Title: "The Witcher 3: Wild Hunt", Year: 2015, WorkType: types.WorkTypeGame, CoverURL: "https://images.igdb.com/igdb/image/upload/t_cover_big/co1wyy.png"},
	{ProviderRef: types.NewProviderRef("igdb", "1020"), Title: "Grand Theft Auto V", Year: 2013, WorkType: types.WorkTypeGame, CoverURL: "https://images.igdb.com/igdb/image/upload/t_cover_big/co2lbd.png"},
	{ProviderRef: types.NewProviderRef("igdb", "1074"), Title: "Red Dead Redemption 2", Year: 2018, WorkType: types.WorkTypeGame, CoverURL: "https://images.igdb.com/igdb/image/upload/t_cover_big/co1q1f.png"},
	{ProviderRef: types.NewProviderRef("igdb", "11208"), Title: "Elden Ring", Year: 2022, WorkType: types.WorkTypeGame, CoverURL: "https://images.igdb.com/igdb/image/upload/t_cover_big/co4jni.png"},
	{ProviderRef: types.NewProviderRef("igdb", "119171"), Title: "Baldur's Gate 3", Year: 2023, WorkType: types.WorkTypeGame, CoverURL: "https://images.igdb.com/igdb/image/upload/t_cover_big/co5s5v.png"},
	{ProviderRef: types.NewProviderRef("igdb", "1877"), Title: "Cyberpunk 2077", Year: 2020, WorkType: types.WorkTypeGame, CoverURL: "https://images.igdb.com/igdb/image/upload/t_cover_big/co2vt0.png"},
	{ProviderRef: types.NewProviderRef("igdb", "11156"), Title: "Sekiro: Shadows Die Twice", Year: 2019, WorkType: types.WorkTypeGame, CoverURL: "https://images.igdb.com/igdb/image/upload/t_cover_big/co1ixg.png"},
	{ProviderRef: types.NewProviderRef("igdb", "113285"), Title: "Hades", Year: 2020, WorkType: types.WorkTypeGame, CoverURL: "https://images.igdb.com/igdb/image/upload/t_cover_big/co2i0u.png"},
	{ProviderRef: types.NewProviderRef("igdb", "26192"), Title: "Celeste", Year: 2018, WorkType: types.WorkTypeGame, CoverURL: "https://images.igdb.com/igdb/image/upload/t_cover_big/co1tnq.png"},
	{ProviderRef: types.NewProviderRef("igdb", "25076"), Title: "Stardew Valley", Year: 2016, WorkType: types.WorkTypeGame, CoverURL: "https://images.igdb.com/igdb/image/upload/t_cover_big/co5qkw.png"},
}

// fixturePageSize matches the RAWG page size so pagination behaves the same
// against fixtures and a live provider.
const fixturePageSize = 20

// FixtureGateway serves the hardcoded catalog with case-insensitive
// substring matching. It is always available and never fails.
type FixtureGateway struct{}

// NewFixtureGateway creates the fixture-backed gateway.
func NewFixtureGateway() *FixtureGateway { return &FixtureGateway{} }

// Name implements Gateway.
func (g *FixtureGateway) Name() string { return "fixtures" }

// Status implements Gateway.
func (g *FixtureGateway) Status() Status { return StatusAvailable }

// Search implements Gateway.
func (g *FixtureGateway) Search(ctx context.Context, query string, workType types.WorkType, page int) (*types.SearchPage, error) {
	needle := strings.ToLower(strings.TrimSpace(query))

	var matched []types.SearchResult
	for _, r := range fixtureCatalog {
		if r.WorkType != workType {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(r.Title), needle) {
			continue
		}
		matched = append(matched, r)
	}

	total := len(matched)
	totalPages := (total + fixturePageSize - 1) / fixturePageSize
	start := page * fixturePageSize
	if start > total {
		start = total
	}
	end := start + fixturePageSize
	if end > total {
		end = total
	}

	return &types.SearchPage{
		Results:    matched[start:end],
		TotalCount: total,
		Page:       page,
		TotalPages: totalPages,
	}, nil
}
