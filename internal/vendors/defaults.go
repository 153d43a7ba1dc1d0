package vendors

// DefaultExclusive are the marketplaces trusted enough to anchor the price
// used in value ranking.
var DefaultExclusive = []string{
	"www.ebay.com",
	"www.newegg.com",
	"www.amazon.com",
}

var DefaultApproved = []string{
	"www.ebay.com",
	"www.newegg.com",
	"www.amazon.com",
	"www.staples.com",
	"www.officedepot.com",
	"www.microcenter.com",
	"www.walmart.com",
	"www.wiredzone.com",
	"wiredzone.com",
	"www.aliexpress.com",
	"s.click.aliexpress.com",
	"www.antonline.com",
	"www.gamepc.com",
	"www.avadirect.com",
	// business-only resellers
	"www.cdw.com",
	"www.zones.com",
}

var DefaultUnverified = []string{
	"www.itcreations.com",
	"www.harddiskdirect.com",
	"harddiskdirect.com",
	"www.allhdd.com",
	"www.networkhardwares.com",
	"bleepbox.com",
	"www.serversupply.com",
	"www.publicsector.shidirect.com",
	"www.shidirect.com",
	"www.shi.com",
	"www.cloudninjas.com",
	"cloudninjas.com",
	"www.sabrepc.com",
	"www.acmemicro.com",
	"www.ipcstore.com",
	"www.govets.com",
	"www.insight.com",
	"ips.insight.com",
	"www.onlogic.com",
}
