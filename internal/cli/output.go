package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeEntriesTable(out io.Writer, entries []Entry, wide bool, excerpt func(html string, max int) string) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if wide {
		fmt.Fprintln(tw, "ID\tFEED_ID\tFEED\tTITLE\tDATE\tREAD\tURL\tSUMMARY")
		for _, e := range entries {
			fmt.Fprintf(
				tw,
				"%d\t%d\t%s\t%s\t%s\t%t\t%s\t%s\n",
				e.ID,
				e.FeedID,
				compactText(e.FeedTitle, 24),
				compactText(displayEntryTitle(e), 56),
				formatDate(e.PublishedAt),
				e.Read,
				compactText(e.URL, 48),
				excerpt(e.Summary, 90),
			)
		}
	} else {
		fmt.Fprintln(tw, "ID\tFEED\tTITLE\tDATE\tREAD")
		for _, e := range entries {
			fmt.Fprintf(
				tw,
				"%d\t%s\t%s\t%s\t%t\n",
				e.ID,
				compactText(e.FeedTitle, 24),
				compactText(displayEntryTitle(e), 56),
				formatDate(e.PublishedAt),
				e.Read,
			)
		}
	}
	_ = tw.Flush()
}

func writeFeedsTable(out io.Writer, feeds []Feed, wide bool) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if wide {
		fmt.Fprintln(tw, "ID\tTITLE\tFOLDER\tUNREAD\tTOTAL\tLAST_FETCH\tERRORS\tURL\tSITE_URL\tLAST_ERROR")
		for _, f := range feeds {
			fmt.Fprintf(
				tw,
				"%d\t%s\t%s\t%d\t%d\t%s\t%d\t%s\t%s\t%s\n",
				f.ID,
				compactText(fallback(f.Title, f.URL), 30),
				folderLabel(f.FolderID),
				f.UnreadCount,
				f.TotalCount,
				humanAgo(f.LastFetchedAt),
				f.ErrorCount,
				compactText(f.URL, 46),
				compactText(f.SiteURL, 46),
				compactText(oneLine(f.LastError), 70),
			)
		}
	} else {
		fmt.Fprintln(tw, "ID\tTITLE\tFOLDER\tUNREAD\tLAST_FETCH\tERRORS\tURL")
		for _, f := range feeds {
			fmt.Fprintf(
				tw,
				"%d\t%s\t%s\t%d\t%s\t%d\t%s\n",
				f.ID,
				compactText(fallback(f.Title, f.URL), 30),
				folderLabel(f.FolderID),
				f.UnreadCount,
				humanAgo(f.LastFetchedAt),
				f.ErrorCount,
				compactText(f.URL, 56),
			)
		}
	}
	_ = tw.Flush()
}

func writeFoldersTable(out io.Writer, folders []Folder) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tFEEDS")
	for _, f := range folders {
		ids := make([]string, 0, len(f.FeedIDs))
		for _, id := range f.FeedIDs {
			ids = append(ids, fmt.Sprintf("%d", id))
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", f.ID, compactText(f.Title, 40), strings.Join(ids, ","))
	}
	_ = tw.Flush()
}

func writeUsersTable(out io.Writer, users []User) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tCREATED")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", u.ID, u.Email, formatDate(u.CreatedAt))
	}
	_ = tw.Flush()
}

func writeStatsTable(out io.Writer, st Stats) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tVALUE")
	fmt.Fprintf(tw, "feeds\t%d\n", st.Feeds)
	fmt.Fprintf(tw, "folders\t%d\n", st.Folders)
	fmt.Fprintf(tw, "unread\t%d\n", st.Unread)
	fmt.Fprintf(tw, "total\t%d\n", st.Total)
	_ = tw.Flush()
}

func writeFetchReportTable(out io.Writer, rep FetchReport) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FEED_ID\tFEED\tNEW\tUPDATED\tSKIPPED\tNOT_MODIFIED\tERROR")
	for _, r := range rep.Results {
		fmt.Fprintf(
			tw,
			"%d\t%s\t%d\t%d\t%d\t%t\t%s\n",
			r.FeedID,
			compactText(fallback(r.FeedTitle, r.FeedURL), 30),
			r.NewEntries,
			r.Updated,
			r.Skipped,
			r.NotModified,
			compactText(oneLine(r.Error), 70),
		)
	}
	_ = tw.Flush()
}

func oneLine(v string) string {
	v = strings.ReplaceAll(v, "\n", " ")
	v = strings.ReplaceAll(v, "\r", " ")
	return strings.TrimSpace(v)
}

func displayEntryTitle(e Entry) string {
	if strings.TrimSpace(e.Title) != "" {
		return e.Title
	}
	if strings.TrimSpace(e.URL) != "" {
		return e.URL
	}
	return "(untitled)"
}
