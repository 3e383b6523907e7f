package report

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/procsim/procsim/sim"
)

// Jedule grid_schedule document, single cluster whose hosts are the pool units.
type gridSchedule struct {
	XMLName   xml.Name    `xml:"grid_schedule"`
	MetaInfo  struct{}    `xml:"meta_info"`
	GridInfo  gridInfo    `xml:"grid_info"`
	NodeInfos []nodeStats `xml:"node_infos>node_statistics"`
}

type gridInfo struct {
	Infos    []nameValue `xml:"info"`
	Clusters []cluster   `xml:"clusters>cluster"`
}

// MarshalXML writes nb_clusters ahead of the cluster list and the other infos after it.
func (g gridInfo) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	info := xml.StartElement{Name: xml.Name{Local: "info"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, nv := range g.Infos {
		if nv.Name == "nb_clusters" {
			if err := e.EncodeElement(nv, info); err != nil {
				return err
			}
		}
	}
	list := struct {
		Clusters []cluster `xml:"cluster"`
	}{g.Clusters}
	if err := e.EncodeElement(list, xml.StartElement{Name: xml.Name{Local: "clusters"}}); err != nil {
		return err
	}
	for _, nv := range g.Infos {
		if nv.Name != "nb_clusters" {
			if err := e.EncodeElement(nv, info); err != nil {
				return err
			}
		}
	}
	return e.EncodeToken(start.End())
}

type cluster struct {
	ID        int `xml:"id,attr"`
	Hosts     int `xml:"hosts,attr"`
	FirstHost int `xml:"first_host,attr"`
}

type nameValue struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type nodeStats struct {
	Properties    []nameValue   `xml:"node_property"`
	Configuration configuration `xml:"configuration"`
}

type configuration struct {
	Properties []nameValue `xml:"conf_property"`
	Hosts      []hosts     `xml:"host_lists>hosts"`
}

type hosts struct {
	Start int `xml:"start,attr"`
	Nb    int `xml:"nb,attr"`
}

// WriteJED writes records as a Jedule schedule over capacity units. Every record must
// hold exactly its size in units.
func WriteJED(w io.Writer, records []sim.JobRecord, capacity int) error {
	doc := gridSchedule{
		GridInfo: gridInfo{
			Infos: []nameValue{
				{"nb_clusters", "1"},
				{"unit", "seconds"},
				{"slots", "processors"},
			},
			Clusters: []cluster{{ID: 0, Hosts: capacity}},
		},
		NodeInfos: make([]nodeStats, 0, len(records)),
	}
	for _, r := range records {
		if err := r.CheckSizing(); err != nil {
			return err
		}
		node := nodeStats{
			Properties: []nameValue{
				{"id", r.ID},
				{"type", "computation"},
				{"start_time", fmt.Sprint(r.Start)},
				{"end_time", fmt.Sprint(r.End)},
			},
			Configuration: configuration{
				Properties: []nameValue{
					{"cluster_id", "0"},
					{"host_nb", fmt.Sprint(r.Size)},
				},
			},
		}
		for _, rg := range r.Ranges {
			node.Configuration.Hosts = append(node.Configuration.Hosts, hosts{Start: rg.First, Nb: rg.Len()})
		}
		doc.NodeInfos = append(doc.NodeInfos, node)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding jedule schedule: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
