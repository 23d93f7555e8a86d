package eventlog

const securityXML = `<?xml version="1.0" encoding="utf-8"?>
<Events>
<Event xmlns="http://schemas.microsoft.com/win/2004/08/events/event">
  <System>
    <Provider Name="Microsoft-Windows-Security-Auditing" />
    <EventID>4624</EventID>
    <Task>12544</Task>
    <Execution ProcessID="612" ThreadID="4100" />
  </System>
</Event>
<Event xmlns="http://schemas.microsoft.com/win/2004/08/events/event">
  <System>
    <EventID Qualifiers="0">4688</EventID>
    <Task>13312</Task>
    <Execution ProcessID="4" ThreadID="88" />
  </System>
</Event>
<Event xmlns="http://schemas.microsoft.com/win/2004/08/events/event">
  <System>
    <EventID>4624</EventID>
    <Task>n/a</Task>
    <Execution ProcessID="612" ThreadID="4100" />
  </System>
</Event>
</Events>`

const captureJSON = `[
  {
    "_index": "packets-2019-10-01",
    "_source": {
      "layers": {
        "frame": {"frame.time": "Oct  1, 2019 10:00:00.000000000 CST"},
        "ip": {"ip.src": "10.0.0.5", "ip.dst": "93.184.216.34", "ip.ttl": "64"},
        "http": {"http.host": "example.com"}
      }
    }
  },
  {
    "_index": "packets-2019-10-01",
    "_source": {
      "layers": {
        "ip": {"ip.src": "10.0.0.5", "ip.dst": "8.8.8.8"},
        "dns": {
          "dns.flags.response": "0",
          "Queries": {
            "evil.test: type A, class IN": {"dns.qry.name": "evil.test", "dns.qry.type": "1"}
          }
        }
      }
    }
  }
]`
