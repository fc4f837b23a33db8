package features

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/okian/nbai/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var day0 = time.Date(2015, 10, 1, 0, 0, 0, 0, time.UTC)

// teamGames builds n games for team, every second day, with PTS = 100+i
// and the given results.
func teamGames(team string, results string, offset int) []model.TeamGame {
	out := make([]model.TeamGame, len(results))
	for i, wl := range results {
		g := model.TeamGame{
			TeamName:  team,
			GameID:    fmt.Sprintf("g%03d", i),
			GameDate:  day0.AddDate(0, 0, 2*i+offset),
			DateValid: true,
			WL:        string(wl),
		}
		for s := range g.Stats {
			g.Stats[s] = float64(s)
		}
		g.Stats[model.StatPTS] = float64(100 + i)
		out[i] = g
	}
	return out
}

func TestRolling(t *testing.T) {
	Convey("Given one team with twelve games", t, func() {
		games := teamGames("Heat", "WWLWWWLLWWWW", 0)

		Convey("When features use a window of three", func() {
			rows, err := Rolling(games, 3)
			So(err, ShouldBeNil)

			Convey("Then the first three games are dropped", func() {
				So(rows, ShouldHaveLength, 9)
				So(rows[0].Game.GameID, ShouldEqual, "g003")
			})

			Convey("Then each average excludes the current game", func() {
				for _, r := range rows {
					i := int(r.Game.Stats[model.StatPTS]) - 100
					want := float64(100+i-3+100+i-2+100+i-1) / 3
					So(r.Averages[model.StatPTS], ShouldAlmostEqual, want)
					So(r.Averages[model.StatPTS], ShouldBeLessThan, r.Game.Stats[model.StatPTS])
				}
			})

			Convey("Then rest days and streaks follow the schedule", func() {
				So(rows[0].RestDays, ShouldEqual, 2)
				// results: W W L | W W W L L W W W W
				So(rows[0].WinStreakPrev, ShouldEqual, 0) // after the loss at g002
				So(rows[0].WinStreak, ShouldEqual, 1)
				So(rows[2].WinStreak, ShouldEqual, 3)
				So(rows[3].WinStreak, ShouldEqual, 0)
				So(rows[4].WinStreakPrev, ShouldEqual, 0)
				So(rows[8].WinStreakPrev, ShouldEqual, 3)
			})
		})

		Convey("When the current game's stat is changed", func() {
			before, _ := Rolling(games, 3)
			games[5].Stats[model.StatPTS] = 999
			after, _ := Rolling(games, 3)

			Convey("Then its own features do not move", func() {
				So(after[2].Game.GameID, ShouldEqual, "g005")
				So(after[2].Averages, ShouldResemble, before[2].Averages)
				So(after[3].Averages[model.StatPTS], ShouldNotEqual, before[3].Averages[model.StatPTS])
			})
		})

		Convey("When a prior game lacks a stat", func() {
			games[4].Stats[model.StatFTPct] = math.NaN()
			rows, _ := Rolling(games, 3)

			Convey("Then every row whose window or own stats contain it is dropped", func() {
				ids := map[string]bool{}
				for _, r := range rows {
					ids[r.Game.GameID] = true
				}
				So(ids["g004"], ShouldBeFalse)
				So(ids["g005"], ShouldBeFalse)
				So(ids["g007"], ShouldBeFalse)
				So(ids["g008"], ShouldBeTrue)
			})
		})

		Convey("When the window is invalid", func() {
			_, err := Rolling(games, 0)
			So(errors.Is(err, ErrInvalidWindow), ShouldBeTrue)
		})
	})

	Convey("Given a streak immediately followed by a loss", t, func() {
		rows, err := Rolling(teamGames("Heat", "WWWWLW", 0), 1)
		So(err, ShouldBeNil)

		Convey("Then the game after the loss starts from zero", func() {
			So(rows[3].Game.WL, ShouldEqual, "L")
			So(rows[3].WinStreak, ShouldEqual, 0)
			So(rows[4].WinStreakPrev, ShouldEqual, 0)
		})
	})

	Convey("Given unsorted games of two teams", t, func() {
		games := append(teamGames("Heat", "WLWL", 1), teamGames("Celtics", "LLWW", 0)...)
		games[0], games[7] = games[7], games[0]
		rows, _ := Rolling(games, 1)

		Convey("Then output is in date order", func() {
			for i := 1; i < len(rows); i++ {
				So(rows[i].Game.GameDate.Before(rows[i-1].Game.GameDate), ShouldBeFalse)
			}
			So(Teams(rows), ShouldResemble, []string{"Celtics", "Heat"})
			So(LatestByTeam(rows)["Heat"].Game.GameID, ShouldEqual, "g003")
		})
	})
}

func TestMatchups(t *testing.T) {
	Convey("Given home and away rows of the same games", t, func() {
		home := teamGames("Heat", "WLW", 0)
		away := teamGames("Celtics", "LWL", 0)
		for i := range home {
			home[i].Matchup = "MIA vs. BOS"
			away[i].Matchup = "BOS @ MIA"
			away[i].Stats[model.StatPTS] = 90
		}
		// an away row with no home counterpart
		extra := teamGames("Knicks", "W", 0)[0]
		extra.GameID, extra.Matchup = "zzz", "NYK @ PHI"

		rows, _ := Rolling(append(append(home, away...), extra), 1)
		m := Matchups(rows)

		Convey("Then one row per joined game with home minus away", func() {
			So(m, ShouldHaveLength, 2)
			So(m[0].Home, ShouldEqual, "Heat")
			So(m[0].Away, ShouldEqual, "Celtics")
			So(m[0].Diff, ShouldHaveLength, model.NumMatchupFeatures)
			// averages of the previous game: 100 vs 90
			So(m[0].Diff[model.StatPTS], ShouldEqual, 10)
			So(m[0].HomeWin, ShouldEqual, 0)
			So(m[1].HomeWin, ShouldEqual, 1)
		})

		Convey("Then the dataset mirrors the rows", func() {
			X, y := Dataset(m)
			So(X, ShouldHaveLength, 2)
			So(y, ShouldResemble, []int{0, 1})
		})
	})
}

func TestSeasons(t *testing.T) {
	games := func(player, season, team string, pts float64, n int) []model.PlayerGame {
		out := make([]model.PlayerGame, n)
		for i := range out {
			out[i] = model.PlayerGame{PlayerName: player, SeasonYear: season, TeamID: team, Pts: pts, Min: 30, GameID: fmt.Sprint(i)}
		}
		return out
	}

	Convey("Given a player with constant season stats", t, func() {
		var all []model.PlayerGame
		for y := 2010; y < 2015; y++ {
			all = append(all, games("Steady", fmt.Sprintf("%d-%02d", y, (y+1)%100), "1", 20, 3)...)
		}
		rows := Seasons(all)

		Convey("Then team change and point delta are zero after the first season", func() {
			So(rows, ShouldHaveLength, 5)
			So(rows[0].TeamChanged, ShouldEqual, 1)
			So(rows[0].HasPrev, ShouldBeFalse)
			for _, r := range rows[1:] {
				So(r.TeamChanged, ShouldEqual, 0)
				So(r.PtsDelta, ShouldEqual, 0)
			}
		})

		Convey("Then training rows need both neighbours", func() {
			train := TrainingRows(rows)
			So(train, ShouldHaveLength, 3)
			So(train[0].NextPts, ShouldEqual, 20)
		})
	})

	Convey("Given a player who changes team", t, func() {
		all := append(games("Mover", "2012-13", "1", 10, 2), games("Mover", "2013-14", "2", 16, 4)...)
		all = append(all, games("Other", "2012-13", "1", 5, 1)...)
		rows := Seasons(all)

		Convey("Then the change and delta are recorded", func() {
			So(rows[1].PlayerName, ShouldEqual, "Mover")
			So(rows[1].TeamChanged, ShouldEqual, 1)
			So(rows[1].PtsDelta, ShouldEqual, 6)
			So(rows[1].Games, ShouldEqual, 4)
			So(rows[1].SeasonStart, ShouldEqual, 2013)
			So(rows[0].NextPts, ShouldEqual, 16)
			So(rows[1].HasNext, ShouldBeFalse)
		})

		Convey("Then the latest season is found per player", func() {
			r, ok := LatestSeason(rows, "Mover")
			So(ok, ShouldBeTrue)
			So(r.SeasonYear, ShouldEqual, "2013-14")
			_, ok = LatestSeason(rows, "Nobody")
			So(ok, ShouldBeFalse)
		})

		Convey("Then distinct seasons are counted", func() {
			So(SeasonCount(all), ShouldResemble, map[string]int{"Mover": 2, "Other": 1})
		})
	})
}
